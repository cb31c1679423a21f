package main

import "github.com/KaramelBytes/docbox-cli/cmd"

func main() {
	cmd.Execute()
}
