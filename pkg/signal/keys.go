package signal

// Key addresses one quantity on the signal bus. The same key addresses the
// stale flag of a received quantity.
type Key string

// Received quantities.
const (
	// 0x111 external torque control
	ExtAliveCounter     Key = "ext.alive_counter"
	ExtStateRequest     Key = "ext.state_request"
	ExtRideMode         Key = "ext.ride_mode"
	ExtROCStart         Key = "ext.roc_start"
	ExtBoostEnable      Key = "ext.boost_enable"
	ExtReverseGear      Key = "ext.reverse_gear"
	ExtSkipSignalChecks Key = "ext.skip_signal_checks"
	ExtTorqueRequest    Key = "ext.torque_request"
	ExtRotorSpeedMax    Key = "ext.rotor_speed_max"

	// 0x1B6 immobilizer
	ImmoUnlockRequest       Key = "immo.unlock_request"
	ImmoUnlockRequestLower  Key = "immo.unlock_request_lower"
	ImmoUnlockRequestHigher Key = "immo.unlock_request_higher"

	// 0x171 BMS info 1
	BMSPackVoltage         Key = "bms.pack_voltage"
	BMSPackCurrent         Key = "bms.pack_current"
	BMSErrorcode           Key = "bms.errorcode"
	BMSChargePlugDetection Key = "bms.charge_plug_detection"

	// 0x172 BMS info 2
	BMSState              Key = "bms.state"
	BMSSOC                Key = "bms.soc"
	BMSStateOfHealth      Key = "bms.state_of_health"
	BMSRemainingCapacity  Key = "bms.remaining_capacity"
	BMSFullchargeCapacity Key = "bms.fullcharge_capacity"

	// 0x176 BMS temperatures
	BMSTempPowerstage1 Key = "bms.temp_powerstage1"
	BMSTempPowerstage2 Key = "bms.temp_powerstage2"
	BMSTempMCU         Key = "bms.temp_mcu"
	BMSTempCell1       Key = "bms.temp_cell1"
	BMSTempCell2       Key = "bms.temp_cell2"

	// 0x178 BMS limits and push button
	BMSMaxCharge              Key = "bms.max_charge"
	BMSMaxDischarge           Key = "bms.max_discharge"
	BMSMaxVoltage             Key = "bms.max_voltage"
	BMSMinVoltage             Key = "bms.min_voltage"
	BMSWarningStatus          Key = "bms.warning_status"
	BMSPendingHVShutdown      Key = "bms.pending_hv_shutdown"
	BMSPendingBordnetShutdown Key = "bms.pending_bordnet_shutdown"
	BMSShortPressDetected     Key = "bms.short_press_detected"
	BMSLongPressDetected      Key = "bms.long_press_detected"
	BMSSuperLongPressDetected Key = "bms.super_long_press_detected"
	BMSSuperLongPressOngoing  Key = "bms.super_long_press_ongoing"

	// 0x310, 0x521 dynamometer
	DynoTorque         Key = "dyno.torque"
	DynoDCCurrent      Key = "dyno.dc_current"
	DynoDCVoltage      Key = "dyno.dc_voltage"
	DynoElecPowerInput Key = "dyno.elec_power_input"

	// 0x50C display
	DispResetTrip Key = "disp.reset_trip"

	// 0x600 test data
	ReceivedTestData Key = "test.received_data"
)

// Transmitted quantities.
const (
	InfoOdoTotalKilometers Key = "info.odo_total_km"
	InfoOdoTripKilometers  Key = "info.odo_trip_km"
	InfoMotorCurrentIq     Key = "info.motor_current_iq"
	InfoMotorCurrentId     Key = "info.motor_current_id"
	InfoDCCurrent          Key = "info.dc_current"
	InfoVoltageDCLink      Key = "info.voltage_dc_link"
	InfoRotorSpeed         Key = "info.rotor_speed"
	InfoMotorCurrent       Key = "info.motor_current"
	InfoVehicleSpeed       Key = "info.vehicle_speed"
	InfoRemainingDistance  Key = "info.remaining_distance"
	InfoConsumptionAveTrip Key = "info.consumption_ave_trip"
	InfoAhPos              Key = "info.ah_pos"
	InfoAhNeg              Key = "info.ah_neg"
	InfoRelTorqueSetpoint  Key = "info.rel_torque_setpoint"
	InfoRelTorqueMax       Key = "info.rel_torque_max"
	InfoRelTorqueMapping   Key = "info.rel_torque_mapping"

	TempFETMax         Key = "temp.fet_max"
	TempMotor          Key = "temp.motor"
	TempMCU            Key = "temp.mcu"
	TempCombinedMaxRel Key = "temp.combined_max_rel"

	ErrErrorcode Key = "err.errorcode"
	ErrMemTrace0 Key = "err.mem_trace_0"

	SMTrqControl      Key = "sm.trq_control"
	SMPEModeReq       Key = "sm.pe_mode_req"
	SMBMSControlState Key = "sm.bms_control_state"

	ROCResult Key = "roc.result"

	AppDispRideMode  Key = "app.disp_ride_mode"
	AppBoostInfo     Key = "app.boost_info"
	AppBoostAvailRel Key = "app.boost_avail_rel"
	AppBoostAvailAs  Key = "app.boost_avail_as"

	DeratingTempMCU            Key = "trq_lim.derating_temp_mcu"
	DeratingMaxPositiveCurrent Key = "trq_lim.derating_max_positive_current"
	DeratingMaxNegativeCurrent Key = "trq_lim.derating_max_negative_current"
	DeratingDCLinkVoltageMax   Key = "trq_lim.derating_dc_link_voltage_max"
	DeratingDCLinkVoltageMin   Key = "trq_lim.derating_dc_link_voltage_min"
	DeratingRotorSpeed         Key = "trq_lim.derating_rotor_speed"
	DeratingTempFET            Key = "trq_lim.derating_temp_fet"
	DeratingTempMotor          Key = "trq_lim.derating_temp_motor"
	DeratingActive             Key = "trq_lim.derating_active"
	DriverReverseGear          Key = "trq_des.driver_reverse_gear"

	ProdBSWVerRelease  Key = "prod.bsw_ver_release"
	ProdBSWVerRevision Key = "prod.bsw_ver_revision"
	ProdHWProdInfo1    Key = "prod.hw_prod_info_1"
	ProdHWID1          Key = "prod.hw_id1"
	ProdHWID2          Key = "prod.hw_id2"

	BSWDatasetID1          Key = "bsw.dataset_id1"
	BSWDatasetID2          Key = "bsw.dataset_id2"
	BSWDatasetID3          Key = "bsw.dataset_id3"
	BSWImmoChallengeLower  Key = "bsw.immo_challenge_lower"
	BSWImmoChallengeHigher Key = "bsw.immo_challenge_higher"
	BSWBMSUnlockCodeLower  Key = "bsw.bms_unlock_code_lower"
	BSWBMSUnlockCodeHigher Key = "bsw.bms_unlock_code_higher"

	SOCStateOfCharge Key = "soc.state_of_charge"
)
