// The main package for the bumidom-archive-crawler executable.
package main

import (
	"github.com/JakeFAU/bumidom-archive-crawler/cmd"
)

func main() {
	cmd.Execute()
}
