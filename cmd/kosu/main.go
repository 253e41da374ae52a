// Command kosu builds course packages from YAML manifests.
package main

import "github.com/agilescientific/kosu/cmd/kosu/cmd"

func main() {
	cmd.Execute()
}
