package main

import (
	_ "time/tzdata"

	"github.com/frahmantamala/timeclock/cmd"
)

func main() {
	cmd.Execute()
}
