package noteservice

import (
	"bytes"
	"context"
	"testing"

	"github.com/starford/arbor/internal/testutil"
)

func TestOutlineRender(t *testing.T) {
	svc, root := testService(t)
	ctx := context.Background()
	testutil.Notes(t, root, "Projects/Arbor", "Projects/Kenning", "Inbox")

	if _, err := svc.SetExpanded(ctx, "Projects", true); err != nil {
		t.Fatal(err)
	}
	out, err := svc.Outline(ctx, "", -1)
	if err != nil {
		t.Fatal(err)
	}

	want := "+ /\n  - Inbox\n  v Projects\n    - Arbor\n    - Kenning\n"
	if got := out.String(); got != want {
		t.Errorf("outline =\n%s\nwant\n%s", got, want)
	}

	var buf bytes.Buffer
	n, err := out.WriteTo(&buf)
	if err != nil || int(n) != len(want) || buf.String() != want {
		t.Errorf("WriteTo = %d, %v, %q", n, err, buf.String())
	}
}
