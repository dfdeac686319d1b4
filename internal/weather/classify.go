package weather

// ClassifyCode maps a WMO weather code to a normalized Condition. The
// mapping is total: unrecognized codes fall back to cloudy rather than
// failing, so a provider adding new codes never breaks ingestion.
func ClassifyCode(code int) Condition {
	switch {
	case code == 0:
		return ConditionClear
	case code >= 1 && code <= 3:
		return ConditionPartlyCloudy
	case code >= 45 && code <= 48:
		return ConditionCloudy
	case code >= 51 && code <= 67:
		return ConditionRain
	case code >= 71 && code <= 77:
		return ConditionSnow
	case code >= 80 && code <= 82:
		return ConditionRain
	case code >= 85 && code <= 86:
		return ConditionSnow
	case code >= 95 && code <= 99:
		return ConditionRain
	default:
		return ConditionCloudy
	}
}
