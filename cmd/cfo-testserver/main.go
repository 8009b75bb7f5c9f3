// cfo-testserver serves the CFO dashboard with permissive CORS headers for
// local API testing.
package main

import (
	"os"

	"github.com/corey/cfodash/internal/app"
	"github.com/corey/cfodash/internal/cli"
)

func main() {
	if err := cli.Execute(app.TestServer()); err != nil {
		os.Exit(1)
	}
}
