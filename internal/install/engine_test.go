package install

import "testing"

func TestSplitNameVersion_ParsesFromTheRight(t *testing.T) {
	name, version, ok := splitNameVersion("some-tool@1.2.3")
	if !ok || name != "some-tool" || version != "1.2.3" {
		t.Fatalf("got name=%q version=%q ok=%v", name, version, ok)
	}
}

func TestSplitNameVersion_RejectsMissingAt(t *testing.T) {
	_, _, ok := splitNameVersion("some-tool")
	if ok {
		t.Fatal("expected ok=false for a base name with no @version suffix")
	}
}

func TestSplitNameVersion_VersionWithAtSign(t *testing.T) {
	// Prerelease identifiers don't contain '@', but the parser should still
	// split on the rightmost occurrence if one ever appears upstream.
	name, version, ok := splitNameVersion("scoped@name@1.0.0")
	if !ok || name != "scoped@name" || version != "1.0.0" {
		t.Fatalf("got name=%q version=%q ok=%v", name, version, ok)
	}
}
