package chroot

import (
	"errors"
	"reflect"
	"testing"

	"golang.org/x/sys/unix"
)

func TestSplitFields(t *testing.T) {
	got := splitFields("36 35 0:30 / /proc rw,nosuid shared:13 - proc proc rw")
	want := []string{"36", "35", "0:30", "/", "/proc", "rw,nosuid", "shared:13", "-", "proc", "proc", "rw"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("splitFields = %v, want %v", got, want)
	}
}

func TestContains(t *testing.T) {
	if !contains([]string{"a", "b"}, "b") {
		t.Fatal("expected contains to find b")
	}
	if contains([]string{"a", "b"}, "c") {
		t.Fatal("expected contains to not find c")
	}
	if contains(nil, "a") {
		t.Fatal("expected contains(nil, _) to be false")
	}
}

func TestRemoveString(t *testing.T) {
	got := removeString([]string{"a", "b", "a", "c"}, "a")
	want := []string{"b", "c"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("removeString = %v, want %v", got, want)
	}
}

func TestMountArgsBind(t *testing.T) {
	flags, data := mountArgs([]string{"bind"}, "")
	if flags != unix.MS_BIND {
		t.Fatalf("flags = %x, want MS_BIND", flags)
	}
	if data != "" {
		t.Fatalf("data = %q, want empty", data)
	}
}

func TestMountArgsDefaultsToBindForEmptyFsType(t *testing.T) {
	flags, _ := mountArgs(nil, "")
	if flags != unix.MS_BIND {
		t.Fatalf("flags = %x, want MS_BIND default", flags)
	}
}

func TestMountArgsPseudoFsHasNoImplicitBind(t *testing.T) {
	flags, _ := mountArgs(nil, "proc")
	if flags&unix.MS_BIND != 0 {
		t.Fatalf("flags = %x, pseudo fs mount should not carry MS_BIND", flags)
	}
}

func TestMountGhostEntryStrictAndNonStrict(t *testing.T) {
	c := &Chroot{path: t.TempDir(), activeMounts: []string{"srv"}}

	// Strict (default): a tracked-but-unmounted destination is an error.
	if err := c.Mount("/nonexistent", "srv", []string{"bind"}, "", false); !errors.Is(err, ErrGhostMount) {
		t.Fatalf("strict mode = %v, want ErrGhostMount", err)
	}

	old := StrictMountConsistency
	StrictMountConsistency = false
	t.Cleanup(func() { StrictMountConsistency = old })

	// Non-strict: the stale entry is dropped with a warning and the
	// mount proceeds (and fails here only because the source is fake).
	if err := c.Mount("/nonexistent", "srv", []string{"bind"}, "", false); errors.Is(err, ErrGhostMount) {
		t.Fatalf("non-strict mode should not raise ErrGhostMount, got %v", err)
	}
	if contains(c.activeMounts, "srv") {
		t.Fatal("expected the stale tracked entry to be dropped in non-strict mode")
	}
}

func TestMountArgsReadOnly(t *testing.T) {
	flags, _ := mountArgs([]string{"bind", "ro"}, "")
	if flags&unix.MS_RDONLY == 0 {
		t.Fatal("expected MS_RDONLY flag set")
	}
}
