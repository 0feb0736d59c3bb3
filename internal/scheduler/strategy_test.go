package scheduler

import (
	"reflect"
	"testing"

	"github.com/kupferbootstrap/kupferbootstrap/internal/chroot"
)

func TestCrossExtraPackagesIncludesCrossdirectInfra(t *testing.T) {
	got := crossExtraPackages("aarch64-linux-gnu-gcc")
	want := append(append([]string{}, chroot.CrossdirectInfraPackages...), "aarch64-linux-gnu-gcc")
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("crossExtraPackages = %v, want %v", got, want)
	}
}
