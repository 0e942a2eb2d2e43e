package search_test

import (
	"strings"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
	"github.com/womenconnect/platform/internal/domain/search"
)

func sampleRecords() []search.Record {
	return []search.Record{
		careerFair(),
		{Title: "Coding Bootcamp", Category: "education", Type: "online", Location: "https://zoom.example/1", Description: "Learn Go in a week"},
		{Title: "Home Budgeting", Category: "home", Type: "venue", Location: "Abuja Library"},
		{Title: "Women in Tech Fair", Category: "work", Type: "online", Description: "Virtual booths and talks"},
		{Title: "Events Planning", Category: "work", Type: "venue", Location: "Lagos Island"},
	}
}

func titles(rs []search.Record) []string {
	out := make([]string, len(rs))
	for i, r := range rs {
		out[i] = r.Title
	}
	return out
}

func TestSearchRecords(t *testing.T) {
	Convey("Given the career fair record", t, func() {
		records := []search.Record{careerFair()}

		Convey("When searching for tokens spread over location and category", func() {
			got := search.SearchRecords(records, "lagos work")
			So(got, ShouldHaveLength, 1)
		})

		Convey("When one token is missing everywhere", func() {
			got := search.SearchRecords(records, "career fair online")
			So(got, ShouldBeEmpty)
		})

		Convey("When matching a partial word", func() {
			got := search.SearchRecords(records, "employ")
			So(got, ShouldHaveLength, 1)
		})
	})

	Convey("Given an empty record list", t, func() {
		Convey("Then any query returns an empty list", func() {
			So(search.SearchRecords([]search.Record{}, "anything"), ShouldBeEmpty)
			So(search.SearchRecords(nil, "anything"), ShouldBeEmpty)
		})
	})

	Convey("Given several records", t, func() {
		records := sampleRecords()

		Convey("When the query is empty or whitespace only", func() {
			for _, q := range []string{"", "   ", "\t\n "} {
				So(search.SearchRecords(records, q), ShouldResemble, records)
			}
		})

		Convey("When the query matches several records", func() {
			got := search.SearchRecords(records, "fair")

			Convey("Then the input order is preserved", func() {
				So(titles(got), ShouldResemble, []string{"Career Fair", "Women in Tech Fair"})
			})
		})

		Convey("When the query differs only in case", func() {
			for _, q := range []string{"lagos", "online fair", "GO week"} {
				So(search.SearchRecords(records, strings.ToUpper(q)), ShouldResemble, search.SearchRecords(records, q))
			}
		})

		Convey("When filtering twice versus once with the joined query", func() {
			pairs := [][2]string{{"work", "lagos"}, {"fair", "online"}, {"home", "missing"}, {"", "venue"}}
			for _, p := range pairs {
				twice := search.SearchRecords(search.SearchRecords(records, p[0]), p[1])
				once := search.SearchRecords(records, p[0]+" "+p[1])
				So(titles(twice), ShouldResemble, titles(once))
			}
		})

		Convey("When searching a plural form", func() {
			Convey("Then no stemming happens", func() {
				So(titles(search.SearchRecords(records, "events")), ShouldResemble, []string{"Events Planning"})
				So(search.SearchRecords(records, "eventss"), ShouldBeEmpty)
			})
		})

		Convey("When the location of an online record holds the token", func() {
			Convey("Then the matcher still sees it", func() {
				So(titles(search.SearchRecords(records, "zoom")), ShouldResemble, []string{"Coding Bootcamp"})
			})
		})

		Convey("Then the result is always a subsequence of the input", func() {
			for _, q := range []string{"a", "o", "work", "venue lagos", "zzz"} {
				got := search.SearchRecords(records, q)
				i := 0
				for _, r := range records {
					if i < len(got) && got[i] == r {
						i++
					}
				}
				So(i, ShouldEqual, len(got))
			}
		})

		Convey("Then the input slice is not modified", func() {
			before := sampleRecords()
			_ = search.SearchRecords(records, "fair")
			So(records, ShouldResemble, before)
		})
	})
}

func TestParseQuery(t *testing.T) {
	Convey("Given a query with mixed case and extra whitespace", t, func() {
		q := search.ParseQuery("  Lagos\t WORK\n")

		Convey("Then tokens are lowercased and split on whitespace runs", func() {
			So(q.IsEmpty(), ShouldBeFalse)
			So(q.Tokens(), ShouldResemble, []string{"lagos", "work"})
		})

		Convey("And MatchRecord agrees with SearchRecords", func() {
			So(q.MatchRecord(careerFair()), ShouldBeTrue)
		})
	})

	Convey("Given a blank query", t, func() {
		q := search.ParseQuery(" ")
		So(q.IsEmpty(), ShouldBeTrue)
		So(q.MatchRecord(search.Record{}), ShouldBeTrue)
	})
}
