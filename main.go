package main

import (
	"fmt"

	"github.com/nexosim/nexosim-go/cmd"
)

func main() {
	if err := cmd.Run(); err != nil {
		fmt.Println(err.Error())
		return
	}
}
