package debuglog

import "testing"

func TestLog_KeepsNewestN(t *testing.T) {
	l := New(3)
	for _, p := range []string{"triple", "count", "sample-points", "facilities", "simple-join"} {
		l.Add(Entry{Probe: p, Status: "ok"})
	}
	got := l.Recent()
	if len(got) != 3 {
		t.Fatalf("len=%d want 3", len(got))
	}
	want := []string{"simple-join", "facilities", "sample-points"}
	for i, w := range want {
		if got[i].Probe != w {
			t.Fatalf("entry %d = %s want %s", i, got[i].Probe, w)
		}
	}
	if got[0].Seq != 5 || got[0].At.IsZero() {
		t.Fatalf("seq/at not assigned: %+v", got[0])
	}
}

func TestLog_DefaultSize(t *testing.T) {
	l := New(0)
	for range 12 {
		l.Add(Entry{})
	}
	if n := len(l.Recent()); n != 10 {
		t.Fatalf("len=%d want 10", n)
	}
}

func TestLog_Clear(t *testing.T) {
	l := New(3)
	l.Add(Entry{Probe: "count"})
	l.Clear()
	if n := len(l.Recent()); n != 0 {
		t.Fatalf("len=%d want 0", n)
	}
	if e := l.Add(Entry{}); e.Seq != 2 {
		t.Fatalf("sequence should keep increasing, got %d", e.Seq)
	}
}
