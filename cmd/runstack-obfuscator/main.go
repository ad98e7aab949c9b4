/*
runstack-obfuscator (Entry Point)

This tool reads PHP source files, applies the obfuscation passes of the
configured level and writes the transformed code.
*/
package main

import (
	"github.com/runstack/obfuscator/cmd/runstack-obfuscator/cmd"
)

func main() {
	cmd.Execute()
}
