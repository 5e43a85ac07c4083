// Command docs-translator crawls documentation sites and translates them.
package main

import "github.com/JakeFAU/docs-translator/cmd"

func main() {
	cmd.Execute()
}
