package project

import (
	"autotune/common/logger"
)

// Negotiate_tmc_frequency asks driver for its clock once. A driver without
// the capability, or one whose query fails, gets fallback.
func Negotiate_tmc_frequency(driver interface{}, fallback float64) float64 {
	query, ok := driver.(ITMCFrequency)
	if !ok {
		logger.Debugf("TMC clock query not supported, using %.0f Hz", fallback)
		return fallback
	}
	fclk, err := query.Get_tmc_frequency()
	if err != nil || fclk <= 0 {
		logger.Debugf("TMC clock query failed (%v), using %.0f Hz", err, fallback)
		return fallback
	}
	return fclk
}
