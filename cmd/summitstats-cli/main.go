package main

import (
	"summitstats-backend/cmd/summitstats-cli/commands"
	"summitstats-backend/lib/osutil"
)

func main() {
	commands.ExecuteContext(osutil.SignalContext())
}
