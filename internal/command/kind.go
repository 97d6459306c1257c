package command

import "fmt"

const (
	// Control commands take no arguments and are sent immediately
	EnterSDKMode Kind = iota
	TakeOff
	Land
	StartVideo
	StopVideo
	EmergencyStop
	Hover
	EnableMissionPads
	DisableMissionPads

	// Movement commands
	Up
	Down
	Left
	Right
	Forward
	Back
	Clockwise
	CounterClockwise
	Flip
	Go
	Curve

	// Set commands
	SetSpeed
	SetRemoteControl
	SetWiFi
	SetMissionPadDirection

	// Read commands
	GetSpeed
	GetBattery
	GetTime
	GetWiFiSNR
	GetSDKVersion
	GetSerialNumber
)

const (
	CategoryControl Category = iota
	CategoryMovement
	CategorySet
	CategoryRead
)

const (
	ResponseOk ResponseKind = iota
	ResponseSpeed
	ResponseBattery
	ResponseTime
	ResponseWiFiSignal
	ResponseSdkVersion
	ResponseSerial

	// ResponseNone is used by commands the drone never acknowledges (rc)
	ResponseNone
)

// Kind identifies a Tello SDK command
type Kind int

var kindNames = map[Kind]string{
	EnterSDKMode:           "EnterSDKMode",
	TakeOff:                "TakeOff",
	Land:                   "Land",
	StartVideo:             "StartVideo",
	StopVideo:              "StopVideo",
	EmergencyStop:          "EmergencyStop",
	Hover:                  "Hover",
	EnableMissionPads:      "EnableMissionPads",
	DisableMissionPads:     "DisableMissionPads",
	Up:                     "Up",
	Down:                   "Down",
	Left:                   "Left",
	Right:                  "Right",
	Forward:                "Forward",
	Back:                   "Back",
	Clockwise:              "Clockwise",
	CounterClockwise:       "CounterClockwise",
	Flip:                   "Flip",
	Go:                     "Go",
	Curve:                  "Curve",
	SetSpeed:               "SetSpeed",
	SetRemoteControl:       "SetRemoteControl",
	SetWiFi:                "SetWiFi",
	SetMissionPadDirection: "SetMissionPadDirection",
	GetSpeed:               "GetSpeed",
	GetBattery:             "GetBattery",
	GetTime:                "GetTime",
	GetWiFiSNR:             "GetWiFiSNR",
	GetSDKVersion:          "GetSDKVersion",
	GetSerialNumber:        "GetSerialNumber",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Category groups commands by their purpose
type Category int

func (c Category) String() string {
	switch c {
	case CategoryControl:
		return "control"
	case CategoryMovement:
		return "movement"
	case CategorySet:
		return "set"
	case CategoryRead:
		return "read"
	default:
		return fmt.Sprintf("Category(%d)", int(c))
	}
}

// ResponseKind describes what the drone sends back for a command
type ResponseKind int

func (r ResponseKind) String() string {
	switch r {
	case ResponseOk:
		return "ok"
	case ResponseSpeed:
		return "speed"
	case ResponseBattery:
		return "battery"
	case ResponseTime:
		return "time"
	case ResponseWiFiSignal:
		return "wifi"
	case ResponseSdkVersion:
		return "sdk"
	case ResponseSerial:
		return "serial"
	case ResponseNone:
		return "none"
	default:
		return fmt.Sprintf("ResponseKind(%d)", int(r))
	}
}
