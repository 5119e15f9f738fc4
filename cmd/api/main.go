package main

import "github.com/philly/school-finance/backend/cmd/api/cmd"

func main() {
	cmd.Execute()
}
