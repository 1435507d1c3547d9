package main

import "github.com/BugBuster18/Agentic-File-Recommender/cmd"

func main() {
	cmd.Execute()
}
