package alarm

import (
	"strings"

	"github.com/oppamcare/oppam/http"
)

func validateCreateAlarmReq(req CreateAlarmRequest) error {
	v := http.NewRequestValidator()
	v.NotNegative("id", req.ID)
	v.Field("message").When(isBlank(req.Message)).Message("Must not be blank")
	v.Field("time").When(req.Time.IsZero()).Message("Must not be empty")
	v.OptionalRange("interval_seconds", req.IntervalSeconds, minIntervalSeconds, maxIntervalSeconds)
	v.OptionalRange("max_misses", req.MaxMisses, minMaxMisses, maxMaxMisses)
	return v.Error()
}

func validateListAlarmsReq(req ListAlarmsRequest) error {
	v := http.NewRequestValidator()
	v.Field("status").When(req.Status != "" && !Status(req.Status).Valid()).Message("Must be a known status")
	return v.Error()
}

func validateAlarmIDReq(req AlarmIDRequest) error {
	v := http.NewRequestValidator()
	v.Field("id").When(!ValidID(req.ID)).Message("Must be positive")
	return v.Error()
}

func validateDebugAlarmReq(req DebugAlarmRequest) error {
	v := http.NewRequestValidator()
	v.NotNegative("id", req.ID)
	v.Field("delay_seconds").When(req.DelaySeconds != nil && *req.DelaySeconds < 0).Message("Must not be negative")
	return v.Error()
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
