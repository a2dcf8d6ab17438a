package main

import "github.com/sua-a1/cram-app-sub001/app/cmd/provisionctl/cmd"

func main() {
	cmd.Execute()
}
