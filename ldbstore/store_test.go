package ldbstore

import (
	"io/ioutil"
	"os"
	"reflect"
	"testing"

	"github.com/pkg/errors"
	"github.com/syndtr/goleveldb/leveldb/opt"

	"github.com/timpalpant/go-spne"
	"github.com/timpalpant/go-spne/games"
)

func TestStore(t *testing.T) {
	tmpDir, err := ioutil.TempDir("", "spne-test-")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(tmpDir)

	store, err := New(tmpDir, &opt.Options{})
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	entry := games.EntryDeterrence()
	if err := store.Put("entry", entry); err != nil {
		t.Fatal(err)
	}
	if err := store.Put("centipede", games.Centipede(3)); err != nil {
		t.Fatal(err)
	}

	got, err := store.Get("entry")
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got.Snapshot(), entry.Snapshot()) {
		t.Errorf("expected %+v, got %+v", entry.Snapshot(), got.Snapshot())
	}

	sol, err := spne.Solve(got)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(sol.ExpectedPayoffs, []float64{1, 1}) {
		t.Errorf("expected payoffs [1 1], got %v", sol.ExpectedPayoffs)
	}

	keys, err := store.Keys()
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(keys, []string{"centipede", "entry"}) {
		t.Errorf("expected keys [centipede entry], got %v", keys)
	}

	if err := store.Delete("entry"); err != nil {
		t.Fatal(err)
	}
	if _, err := store.Get("entry"); !errors.Is(err, spne.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func BenchmarkPutGet(b *testing.B) {
	tmpDir, err := ioutil.TempDir("", "spne-test-")
	if err != nil {
		b.Fatal(err)
	}
	defer os.RemoveAll(tmpDir)

	store, err := New(tmpDir, &opt.Options{})
	if err != nil {
		b.Fatal(err)
	}
	defer store.Close()

	g := games.Ultimatum(100)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := store.Put("ultimatum", g); err != nil {
			b.Fatal(err)
		}
		if _, err := store.Get("ultimatum"); err != nil {
			b.Fatal(err)
		}
	}
}
