// cfo-dashboard serves the CFO dashboard locally with caching disabled and
// opens it in the default browser.
package main

import (
	"os"

	"github.com/corey/cfodash/internal/app"
	"github.com/corey/cfodash/internal/cli"
)

func main() {
	if err := cli.Execute(app.Dashboard()); err != nil {
		os.Exit(1)
	}
}
