package loratext

import "fmt"

// RadioSettings is the channel a node listens and transmits on. Nodes hear each other only
// when both values match.
type RadioSettings struct {
	// Frequency is the carrier frequency in Hz.
	Frequency uint32
	// SyncWord is the LoRa sync word.
	SyncWord uint8
}

func (s RadioSettings) String() string {
	return fmt.Sprintf("%.3fMHz/0x%02X", float64(s.Frequency)/1e6, s.SyncWord)
}

// DefaultSyncWord keeps loratext traffic apart from LoRaWAN (0x34) and the chip default (0x12).
const DefaultSyncWord uint8 = 0xF0

// Band is a named ISM frequency.
type Band struct {
	Name      string
	Frequency uint32
}

var (
	BandEU433 = Band{Name: "EU433", Frequency: 433_175_000}
	BandEU868 = Band{Name: "EU868", Frequency: 868_000_000}
	BandUS915 = Band{Name: "US915", Frequency: 915_000_000}
	BandAS923 = Band{Name: "AS923", Frequency: 923_200_000}
)

// Bands lists the known presets.
var Bands = []Band{BandEU433, BandEU868, BandUS915, BandAS923}

// DefaultRadioSettings is EU868 with DefaultSyncWord.
func DefaultRadioSettings() RadioSettings {
	return RadioSettings{Frequency: BandEU868.Frequency, SyncWord: DefaultSyncWord}
}
