// Command holonet inspects the HoloNet schema and manages its migrations.
package main

import "github.com/marshallshelly/holonet/cmd/holonet/commands"

func main() {
	commands.Execute()
}
