package cli

import (
	"context"
	"fmt"
)

func (a *App) getStatus() string {
	_, user := a.session()
	if user == nil {
		return ""
	}
	return fmt.Sprintf(" (%s)", user.Email)
}

// Root prints the banner and runs the REPL over the app's input.
func (a *App) Root(ctx context.Context) {
	fmt.Fprintln(a.out, "Welcome to cardkeep (type 'help' for commands)")
	runREPL(ctx, a, a.getStatus, a.reader)
}
