package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/bryanwahyu/image-identifier/internal/client"
	"github.com/bryanwahyu/image-identifier/internal/domain/analysis"
	"github.com/bryanwahyu/image-identifier/internal/infra/storage"
)

// objectOpener is the MinIO source as the session sees it.
type objectOpener interface {
	Open(ctx context.Context, key string) (client.File, error)
}

type session struct {
	orch     *client.Orchestrator
	objects  objectOpener // nil kalau minio tidak dikonfigurasi
	out      io.Writer
	maxBytes int64
}

const helpText = `commands:
  open <path | minio://key>  select an image
  analyze                    identify objects, people and scenes
  state                      show the current state
  help                       show this help
  quit                       exit`

// exec runs one command line. It returns false when the session should end.
func (s *session) exec(ctx context.Context, line string) bool {
	cmd, arg, _ := strings.Cut(strings.TrimSpace(line), " ")
	arg = strings.TrimSpace(arg)

	switch strings.ToLower(cmd) {
	case "":
	case "open":
		s.open(ctx, arg)
	case "analyze":
		if err := s.orch.Analyze(ctx).Wait(ctx); err != nil {
			fmt.Fprintln(s.out, err)
			return true
		}
		s.render(s.orch.State())
	case "state":
		s.render(s.orch.State())
	case "help", "?":
		fmt.Fprintln(s.out, helpText)
	case "quit", "exit":
		return false
	default:
		fmt.Fprintf(s.out, "unknown command %q, try help\n", cmd)
	}
	return true
}

func (s *session) open(ctx context.Context, ref string) {
	if ref == "" {
		fmt.Fprintln(s.out, "usage: open <path | minio://key>")
		return
	}

	var f client.File
	if key, ok := storage.ParseRef(ref); ok {
		if s.objects == nil {
			fmt.Fprintln(s.out, "minio is not configured")
			return
		}
		obj, err := s.objects.Open(ctx, key)
		if err != nil {
			fmt.Fprintln(s.out, err)
			return
		}
		f = obj
	} else {
		f = storage.NewLocalFile(ref, s.maxBytes)
	}

	if err := s.orch.SelectFile(ctx, f).Wait(ctx); err != nil {
		fmt.Fprintln(s.out, err)
		return
	}
	if _, ok := s.orch.DataURI(); ok {
		fmt.Fprintf(s.out, "loaded %s\n", f.Name())
	}
}

func (s *session) render(st client.UIState) {
	switch {
	case st.IsLoading:
		fmt.Fprintln(s.out, "Analyzing...")
	case st.Error != "":
		fmt.Fprintln(s.out, "Error:", st.Error)
	case st.Result != nil:
		writeResult(s.out, *st.Result)
	default:
		if _, ok := s.orch.DataURI(); ok {
			fmt.Fprintln(s.out, "Image ready. Type analyze to identify its contents.")
		} else {
			fmt.Fprintln(s.out, "No image selected.")
		}
	}
}

func writeResult(w io.Writer, r analysis.Result) {
	if !r.HasResults() {
		fmt.Fprintln(w, "No specific objects, people, or scenes were identified.")
		return
	}
	section := func(title string, labels []string) {
		if len(labels) == 0 {
			return
		}
		fmt.Fprintf(w, "%s: %s\n", title, strings.Join(labels, ", "))
	}
	section("Objects", r.Objects)
	section("People", r.People)
	section("Scenes", r.Scenes)
}

// printNotifier shows notices the way a toast would.
func printNotifier(w io.Writer) client.NotifierFunc {
	return func(n client.Notice) {
		prefix := "*"
		if n.Destructive {
			prefix = "!"
		}
		fmt.Fprintf(w, "%s %s: %s\n", prefix, n.Title, n.Description)
	}
}
