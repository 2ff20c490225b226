package main

import "github.com/zdxying/FreeLB/cmd"

func main() {
	cmd.Execute()
}
