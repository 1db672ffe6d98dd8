package main

import "github.com/lk2023060901/zhi-text-evaluator/internal/cli"

func main() {
	cli.Execute()
}
