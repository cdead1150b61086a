package models

import "time"

// FollowSample is the telemetry of a single follow tick.
type FollowSample struct {
	Leader            string    `json:"leader"`
	Follower          string    `json:"follower"`
	Outcome           string    `json:"outcome"`
	Separation        float64   `json:"separation"`
	Bearing           float64   `json:"bearing"`
	EffectiveDistance float64   `json:"effective_distance"`
	Target            *Position `json:"target,omitempty"`
	Timestamp         time.Time `json:"timestamp"`
}

func (s *FollowSample) ToInfluxTags() map[string]string {
	return map[string]string{
		"leader":   s.Leader,
		"follower": s.Follower,
		"outcome":  s.Outcome,
	}
}

func (s *FollowSample) ToInfluxFields() map[string]interface{} {
	fields := map[string]interface{}{
		"separation":         s.Separation,
		"bearing":            s.Bearing,
		"effective_distance": s.EffectiveDistance,
	}

	if s.Target != nil {
		fields["target_latitude"] = s.Target.Latitude
		fields["target_longitude"] = s.Target.Longitude
		fields["target_altitude"] = s.Target.Altitude
	}

	return fields
}
