package main

import "github.com/KaramelBytes/tdprofiler/cmd"

func main() {
	cmd.Execute()
}
