package mode

import "testing"

func TestErrors(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{NewUnsupportedPlatform(Server, "plan9"), "server mode is not supported on plan9"},
		{NewUnsupportedPlatform(Client, "js"), "client mode is not supported on js"},
	}

	for _, c := range cases {
		if got := c.err.Error(); got != c.want {
			t.Fatalf("want %q, got %q", c.want, got)
		}
	}
}

func TestFromServerFlag(t *testing.T) {
	if FromServerFlag(true) != Server || FromServerFlag(false) != Client {
		t.Fatal("unexpected mode mapping")
	}
	if Unknown.String() != "unknown" {
		t.Fatalf("unexpected %q", Unknown.String())
	}
}
