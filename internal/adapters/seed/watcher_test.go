package seed_test

import (
	"context"
	"sync"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
	"github.com/womenconnect/platform/internal/adapters/seed"
	"github.com/womenconnect/platform/internal/domain/model"
	"github.com/womenconnect/platform/pkg/logger"
)

type fakeImporter struct {
	mu   sync.Mutex
	seen map[string]model.Event
}

func (f *fakeImporter) ImportEvents(_ context.Context, events []model.Event) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.seen == nil {
		f.seen = make(map[string]model.Event)
	}
	n := 0
	for _, e := range events {
		if _, ok := f.seen[e.ID]; !ok {
			n++
		}
		f.seen[e.ID] = e
	}
	return n, nil
}

func (f *fakeImporter) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.seen)
}

// blockingImporter holds every import until release is closed.
type blockingImporter struct {
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func (b *blockingImporter) ImportEvents(_ context.Context, events []model.Event) (int, error) {
	b.once.Do(func() { close(b.entered) })
	<-b.release
	return len(events), nil
}

func TestWatcher(t *testing.T) {
	Convey("Given a seed directory with one file and a broken one", t, func() {
		dir := t.TempDir()
		writeFile(t, dir, "a.yaml", yamlList)
		writeFile(t, dir, "broken.json", "{")
		writeFile(t, dir, "notes.txt", "ignored")

		imp := &fakeImporter{}
		w := seed.NewWatcher(dir, imp, seed.WithLogger(logger.Nop()), seed.WithDebounce(20*time.Millisecond))

		Convey("When the directory is imported", func() {
			n, err := w.ImportDir(context.Background())

			Convey("Then good files are imported and bad ones skipped", func() {
				So(err, ShouldBeNil)
				So(n, ShouldEqual, 2)
				So(imp.count(), ShouldEqual, 2)
			})

			Convey("Then importing again adds nothing", func() {
				n, err := w.ImportDir(context.Background())
				So(err, ShouldBeNil)
				So(n, ShouldEqual, 0)
			})
		})

		Convey("When the watcher is running and a file appears", func() {
			ctx, cancel := context.WithCancel(context.Background())
			So(w.Start(ctx), ShouldBeNil)
			Reset(func() {
				cancel()
				_ = w.Close()
			})

			writeFile(t, dir, "new.json", `[{"title":"Fresh","date":"2030-07-07","location":"Park"}]`)

			Convey("Then its events reach the importer", func() {
				deadline := time.Now().Add(5 * time.Second)
				for imp.count() < 1 && time.Now().Before(deadline) {
					time.Sleep(10 * time.Millisecond)
				}
				So(imp.count(), ShouldEqual, 1)
			})
		})

		Convey("When Close is called while an import is running", func() {
			slow := &blockingImporter{entered: make(chan struct{}), release: make(chan struct{})}
			bw := seed.NewWatcher(dir, slow, seed.WithLogger(logger.Nop()), seed.WithDebounce(10*time.Millisecond))
			So(bw.Start(context.Background()), ShouldBeNil)

			writeFile(t, dir, "slow.json", `[{"title":"Slow","date":"2030-07-07","location":"Park"}]`)
			select {
			case <-slow.entered:
			case <-time.After(5 * time.Second):
			}

			closed := make(chan struct{})
			go func() {
				_ = bw.Close()
				close(closed)
			}()

			Convey("Then Close waits for the import to finish", func() {
				select {
				case <-closed:
					So("closed early", ShouldBeEmpty)
				case <-time.After(50 * time.Millisecond):
				}
				close(slow.release)
				select {
				case <-closed:
				case <-time.After(5 * time.Second):
					So("close timed out", ShouldBeEmpty)
				}
			})
		})

		Convey("When the directory does not exist", func() {
			missing := seed.NewWatcher(dir+"/missing", imp, seed.WithLogger(logger.Nop()))
			_, err := missing.ImportDir(context.Background())
			So(err, ShouldNotBeNil)
			So(missing.Start(context.Background()), ShouldNotBeNil)
		})
	})
}
