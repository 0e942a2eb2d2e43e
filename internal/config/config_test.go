package config_test

import (
	"context"
	"errors"
	"runtime"
	"testing"
	"time"

	"github.com/smartystreets/goconvey/convey"
	"github.com/womenconnect/platform/internal/config"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with defaults", t, func() {
		cfg := config.New(context.Background())

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
			convey.So(cfg.StoreDriver, convey.ShouldEqual, config.StoreMemory)
			convey.So(cfg.IndexWorkerCount, convey.ShouldEqual, runtime.NumCPU())
			convey.So(cfg.MinPasswordLength, convey.ShouldEqual, 6)
			convey.So(cfg.SessionTTL(), convey.ShouldEqual, 7*24*time.Hour)
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})
	})
}

func TestConfig_Validate(t *testing.T) {
	convey.Convey("Given invalid configurations", t, func() {
		cases := []struct {
			name   string
			mutate func(c *config.Config)
		}{
			{"empty addr", func(c *config.Config) { c.Addr = " " }},
			{"unknown driver", func(c *config.Config) { c.StoreDriver = "postgres" }},
			{"sqlite without path", func(c *config.Config) {
				c.StoreDriver = config.StoreSQLite
				c.SQLitePath = ""
			}},
			{"no blob dir", func(c *config.Config) { c.BlobDir = "" }},
			{"zero queue", func(c *config.Config) { c.IndexQueueSize = 0 }},
			{"zero workers", func(c *config.Config) { c.IndexWorkerCount = 0 }},
			{"zero ttl", func(c *config.Config) { c.SessionTTLMinutes = 0 }},
			{"zero password", func(c *config.Config) { c.MinPasswordLength = 0 }},
			{"zero avatar", func(c *config.Config) { c.AvatarSize = 0 }},
			{"negative results", func(c *config.Config) { c.MaxSearchResults = -1 }},
			{"watch without dir", func(c *config.Config) { c.WatchSeedDir = true }},
		}

		for _, tc := range cases {
			convey.Convey("When "+tc.name, func() {
				cfg := config.New(context.Background())
				tc.mutate(cfg)
				err := cfg.Validate()

				convey.Convey("Then validation fails with ErrInvalidConfig", func() {
					convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				})
			})
		}
	})
}
