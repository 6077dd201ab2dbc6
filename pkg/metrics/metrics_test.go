package metrics

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMetricsManagerCreation(t *testing.T) {
	Convey("Given metrics manager creation", t, func() {
		Convey("When creating with default options", func() {
			manager := NewManager()

			Convey("Then it should register on its own registry", func() {
				So(manager, ShouldNotBeNil)
				So(manager.registry, ShouldNotBeNil)
				So(manager.namespace, ShouldEqual, "questboard")
			})
		})

		Convey("When creating with custom options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace("test"),
				WithSubsystem("unit"),
				WithHistogramBuckets([]float64{1, 2, 3}),
				WithPrometheusRegistry(registry),
			)
			manager.permissionDenials.Inc()

			Convey("Then collectors should be named from the options", func() {
				families, err := registry.Gather()
				So(err, ShouldBeNil)

				names := make([]string, 0, len(families))
				for _, f := range families {
					names = append(names, f.GetName())
				}
				So(names, ShouldContain, "test_unit_permission_denied_total")
			})
		})
	})
}

func TestMetricsRecording(t *testing.T) {
	Convey("Given the global metrics manager", t, func() {
		Convey("When recording an applied merge award", func() {
			beforeCount := testutil.ToFloat64(globalManager.awardsApplied.WithLabelValues(TriggerMerge))
			beforePoints := testutil.ToFloat64(globalManager.pointsAwarded.WithLabelValues(TriggerMerge))

			RecordAwardApplied(TriggerMerge, 50)

			Convey("Then both the count and the points should grow", func() {
				So(testutil.ToFloat64(globalManager.awardsApplied.WithLabelValues(TriggerMerge)), ShouldEqual, beforeCount+1)
				So(testutil.ToFloat64(globalManager.pointsAwarded.WithLabelValues(TriggerMerge)), ShouldEqual, beforePoints+50)
			})
		})

		Convey("When recording skips and denials", func() {
			beforeSkip := testutil.ToFloat64(globalManager.awardsSkipped.WithLabelValues(TriggerMerge, ReasonAlreadyAwarded))
			beforeDenied := testutil.ToFloat64(globalManager.permissionDenials)

			RecordAwardSkipped(TriggerMerge, ReasonAlreadyAwarded)
			RecordPermissionDenied()

			Convey("Then the counters should increment", func() {
				So(testutil.ToFloat64(globalManager.awardsSkipped.WithLabelValues(TriggerMerge, ReasonAlreadyAwarded)), ShouldEqual, beforeSkip+1)
				So(testutil.ToFloat64(globalManager.permissionDenials), ShouldEqual, beforeDenied+1)
			})
		})

		Convey("When updating ledger gauges", func() {
			UpdateLedgerSize(3, 7)

			Convey("Then the gauges should hold the last value", func() {
				So(testutil.ToFloat64(globalManager.ledgerUsers), ShouldEqual, 3)
				So(testutil.ToFloat64(globalManager.ledgerAwards), ShouldEqual, 7)
			})
		})

		Convey("When recording tracker calls, saves and renders", func() {
			So(func() {
				RecordTrackerRequest("get_issue", "200", 12.5)
				RecordLedgerSave(1.5)
				RecordBoardRender("leaderboard", true)
			}, ShouldNotPanic)
		})
	})
}

func TestPush(t *testing.T) {
	Convey("Given a pushgateway", t, func() {
		var method, path string
		status := http.StatusOK
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			method = r.Method
			path = r.URL.Path
			w.WriteHeader(status)
		}))
		defer server.Close()

		RecordPermissionDenied()

		Convey("When pushing succeeds", func() {
			err := Push(context.Background(), server.URL, "questboard")

			Convey("Then the registry should be PUT under the job path", func() {
				So(err, ShouldBeNil)
				So(method, ShouldEqual, http.MethodPut)
				So(path, ShouldEqual, "/metrics/job/questboard")
			})
		})

		Convey("When the gateway rejects the push", func() {
			status = http.StatusInternalServerError
			err := Push(context.Background(), server.URL, "questboard")

			Convey("Then the error should be a push error", func() {
				So(err, ShouldNotBeNil)
				So(errors.Is(err, ErrPush), ShouldBeTrue)
			})
		})
	})
}
