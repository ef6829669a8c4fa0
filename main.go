package main

import "dealradar/cmd"

func main() {
	cmd.Execute()
}
