package wsr88d

// RDAStatusData - RDA Status Data (User 3.2.4.6). Retained from the
// metadata record for version-specific handling of the volume.
type RDAStatusData struct {
	RDAStatus                       uint16
	OperabilityStatus               uint16
	ControlStatus                   uint16
	AuxPowerGeneratorState          uint16
	AvgTxPower                      uint16
	HorizRefCalibCorr               uint16
	DataTxEnabled                   uint16
	VolumeCoveragePatternNum        uint16
	RDAControlAuth                  uint16
	RDABuild                        uint16
	OperationalMode                 uint16
	SuperResStatus                  uint16
	ClutterMitigationDecisionStatus uint16
	AvsetStatus                     uint16
	RDAAlarmSummary                 uint16
	CommandAck                      uint16
	ChannelControlStatus            uint16
	SpotBlankingStatus              uint16
	BypassMapGenDate                uint16
	BypassMapGenTime                uint16
	ClutterFilterMapGenDate         uint16
	ClutterFilterMapGenTime         uint16
	VertRefCalibCorr                uint16
	TransitionPwrSourceStatus       uint16
	RMSControlStatus                uint16
	PerformanceCheckStatus          uint16
	AlarmCodes                      uint16
	Spares                          [20]byte
}

// BuildNumber decodes the RDA build version. Builds before 18.00 are
// stored scaled by 10, later builds by 100.
func (m *RDAStatusData) BuildNumber() float32 {
	build := float32(m.RDABuild) / 100.0
	if build < 2.0 {
		build = float32(m.RDABuild) / 10.0
	}
	return build
}
