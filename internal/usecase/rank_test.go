package usecase

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"teammatch/internal/domain"
)

func TestRankTeams(t *testing.T) {
	Convey("Given seeded teams including one with a dangling member", t, func() {
		ctx := context.Background()
		f := newFixture(t, hashingFactory(domain.Dimension))
		f.seed(t)

		Convey("When teams are ranked for the storefront project", func() {
			records, err := f.rank.RankTeams(ctx, 100)
			So(err, ShouldBeNil)

			Convey("Then the broken team is skipped and the rest are ordered best first", func() {
				So(records, ShouldHaveLength, 2)
				So(records[0].TeamID, ShouldEqual, 11)
				So(records[1].TeamID, ShouldEqual, 10)
				So(records[0].FinalScore, ShouldBeGreaterThanOrEqualTo, records[1].FinalScore)
			})

			Convey("Then the two-member team gets the expected components", func() {
				platform := records[1]
				So(platform.TeamName, ShouldEqual, "Platform")
				So(platform.EmbeddingSimilarity, ShouldEqual, 0)
				So(platform.SkillCoverage, ShouldEqual, 0.5)
				So(platform.ExperienceMatch, ShouldEqual, 0.75)
				So(platform.TeamBalance, ShouldEqual, 1.0)
				So(platform.FinalScore, ShouldEqual, 0.4)
			})
		})

		Convey("When only the top team is requested", func() {
			records, err := f.rank.TopTeams(ctx, 100, 1)
			So(err, ShouldBeNil)
			So(records, ShouldHaveLength, 1)
		})

		Convey("When vectors exist for everything", func() {
			_, err := f.embed.EmbedPending(ctx, nil)
			So(err, ShouldBeNil)
			records, err := f.rank.RankTeams(ctx, 100)
			So(err, ShouldBeNil)

			Convey("Then similarity contributes but scores stay in range", func() {
				for _, r := range records {
					So(r.EmbeddingSimilarity, ShouldNotEqual, 0)
					So(r.FinalScore, ShouldBeBetweenOrEqual, 0, 1)
				}
			})
		})

		Convey("When the project does not exist", func() {
			_, err := f.rank.RankTeams(ctx, 999)
			So(errors.Is(err, domain.ErrNotFound), ShouldBeTrue)
		})
	})
}

func TestScoreTeam(t *testing.T) {
	Convey("Given seeded data", t, func() {
		ctx := context.Background()
		f := newFixture(t, hashingFactory(domain.Dimension))
		f.seed(t)

		Convey("When a single team is scored", func() {
			rec, err := f.rank.ScoreTeam(ctx, 10, 100)
			So(err, ShouldBeNil)
			So(rec.TeamID, ShouldEqual, 10)
			So(rec.ProjectID, ShouldEqual, 100)
			So(rec.MatchPercentage, ShouldEqual, 40)
		})

		Convey("When the team cannot be loaded", func() {
			_, err := f.rank.ScoreTeam(ctx, 12, 100)
			So(errors.Is(err, domain.ErrNotFound), ShouldBeTrue)
		})

		Convey("When the project is unknown", func() {
			_, err := f.rank.ScoreTeam(ctx, 10, 999)
			So(errors.Is(err, domain.ErrNotFound), ShouldBeTrue)
		})
	})
}

func TestSaveScores(t *testing.T) {
	Convey("Given seeded data and deterministic evaluation ids", t, func() {
		ctx := context.Background()
		f := newFixture(t, hashingFactory(domain.Dimension))
		f.seed(t)

		n := 0
		f.rank.newID = func() string {
			n++
			return fmt.Sprintf("eval-%d", n)
		}
		at := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
		f.rank.now = func() time.Time { return at }

		Convey("When scores are saved twice", func() {
			_, err := f.rank.SaveScores(ctx, 100)
			So(err, ShouldBeNil)
			_, err = f.rank.SaveScores(ctx, 100)
			So(err, ShouldBeNil)

			Convey("Then there is still one record per team", func() {
				stored, err := f.rank.ListScores(ctx, 100)
				So(err, ShouldBeNil)
				So(stored, ShouldHaveLength, 2)
				for _, rec := range stored {
					So(rec.EvaluationID, ShouldEqual, "eval-2")
					So(rec.UpdatedAt, ShouldEqual, at)
				}
			})
		})

		Convey("When scores are saved for a subset of teams", func() {
			saved, err := f.rank.SaveScores(ctx, 100, 10, 12)
			So(err, ShouldBeNil)

			Convey("Then only loadable teams are persisted", func() {
				So(saved, ShouldHaveLength, 1)
				stored, err := f.rank.ListScores(ctx, 100)
				So(err, ShouldBeNil)
				So(stored, ShouldHaveLength, 1)
				So(stored[0].TeamID, ShouldEqual, 10)
			})
		})

		Convey("When scores are listed for an unknown project", func() {
			_, err := f.rank.ListScores(ctx, 999)
			So(errors.Is(err, domain.ErrNotFound), ShouldBeTrue)
		})
	})
}

func TestRankProjectsForEmployee(t *testing.T) {
	Convey("Given seeded data", t, func() {
		ctx := context.Background()
		f := newFixture(t, hashingFactory(domain.Dimension))
		f.seed(t)

		Convey("When the employee has no vector yet", func() {
			matches, err := f.rank.RankProjectsForEmployee(ctx, 3, 5)
			So(err, ShouldBeNil)
			So(matches, ShouldBeEmpty)
		})

		Convey("When everything is embedded", func() {
			_, err := f.embed.EmbedPending(ctx, nil)
			So(err, ShouldBeNil)
			matches, err := f.rank.RankProjectsForEmployee(ctx, 3, 5)
			So(err, ShouldBeNil)

			Convey("Then both projects are ranked with their skill gaps", func() {
				So(matches, ShouldHaveLength, 2)
				So(matches[0].Score, ShouldBeGreaterThanOrEqualTo, matches[1].Score)
				for _, m := range matches {
					if m.ProjectID == 100 {
						So(m.SkillGap, ShouldBeEmpty)
					} else {
						So(m.SkillGap, ShouldResemble, []string{"Figma"})
					}
				}
			})
		})

		Convey("When the employee is unknown", func() {
			_, err := f.rank.RankProjectsForEmployee(ctx, 999, 5)
			So(errors.Is(err, domain.ErrNotFound), ShouldBeTrue)
		})
	})
}
