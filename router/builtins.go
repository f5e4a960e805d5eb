package router

import (
	"strings"
	"time"

	"github.com/kektsukuba/stars/directory"
	"github.com/kektsukuba/stars/version"
)

const helpText = "listnodes gethostname getversion gettime listaliases shutdownserver flgon flgoff disconnect hello help"

// dispatchBuiltin executes one of the server's own commands (spec.md
// §4.4), plus the hello/help/gettime/listaliases/disconnect commands
// supplemented from original_source/src/server.rs (see SPEC_FULL.md).
func (r *Router) dispatchBuiltin(sender *directory.NodeEntry, cmd, arg string) {
	switch cmd {
	case "listnodes":
		r.replyOK(sender, "listnodes", strings.Join(r.Dir.Names(), " "))

	case "gethostname":
		r.replyOK(sender, "gethostname", sender.Host.Hostname)

	case "getversion":
		r.replyOK(sender, "getversion", "Version: "+version.Version)

	case "gettime":
		r.replyOK(sender, "gettime", time.Now().Format(time.RFC3339))

	case "listaliases":
		r.replyOK(sender, "listaliases", strings.Join(r.Cfg.Aliases.List(), " "))

	case "shutdownserver":
		if !r.Cfg.ShutdownAllowed(sender.Name) {
			r.replyErr(sender, "PolicyDenied")
			return
		}
		r.replyOK(sender, "shutdownserver", "SYSTEMSHUTDOWN")
		if r.Shutdown != nil {
			go r.Shutdown()
		}

	case "flgon":
		sender.SetVerbose(true)
		r.replyOK(sender, "flgon", "registered")

	case "flgoff":
		sender.SetVerbose(false)
		r.replyOK(sender, "flgoff", "removed")

	case "hello":
		r.replyOK(sender, "hello", "Nice to meet you.")

	case "help":
		r.replyOK(sender, "help", helpText)

	case "disconnect":
		r.builtinDisconnect(sender, arg)

	default:
		r.replyErr(sender, "Malformed")
	}
}

func (r *Router) builtinDisconnect(sender *directory.NodeEntry, arg string) {
	target := strings.Fields(arg)
	if len(target) == 0 {
		r.replyErr(sender, "Malformed")
		return
	}

	name := r.Cfg.Aliases.Resolve(target[0])

	peer, ok := r.Dir.Lookup(name)
	if !ok {
		r.replyErr(sender, "DestinationUnknown")
		return
	}

	r.replyOK(sender, "disconnect", name)
	_ = peer.Close()
}
