// file: gate/servs/s_gate/main.go
package main

import "github.com/rskv-p/gate/cmd"

func main() {
	cmd.Execute()
}
