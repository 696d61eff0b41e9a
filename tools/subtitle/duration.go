package subtitle

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// parseTimestamp converts a WebVTT cue timestamp ("01:02:03.500" or
// "02:03.500") to seconds.
func parseTimestamp(ts string) (float64, error) {
	parts := strings.Split(ts, ":")
	switch len(parts) {
	case 3:
		hours, err := strconv.Atoi(parts[0])
		if err != nil {
			return 0, err
		}
		minutes, err := strconv.Atoi(parts[1])
		if err != nil {
			return 0, err
		}
		seconds, err := strconv.ParseFloat(parts[2], 64)
		if err != nil {
			return 0, err
		}
		return float64(hours*3600+minutes*60) + seconds, nil
	case 2:
		minutes, err := strconv.Atoi(parts[0])
		if err != nil {
			return 0, err
		}
		seconds, err := strconv.ParseFloat(parts[1], 64)
		if err != nil {
			return 0, err
		}
		return float64(minutes*60) + seconds, nil
	}
	return 0, fmt.Errorf("invalid timestamp: %s", ts)
}

// TotalDuration scans a WebVTT file and returns the largest cue end time.
func TotalDuration(vttPath string) (float64, error) {
	file, err := os.Open(vttPath)
	if err != nil {
		return 0, err
	}
	defer file.Close()

	var endTime float64
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		parts := strings.Split(scanner.Text(), " --> ")
		if len(parts) != 2 {
			continue
		}
		fields := strings.Fields(parts[1])
		if len(fields) == 0 {
			continue
		}
		end, err := parseTimestamp(fields[0])
		if err != nil {
			continue
		}
		if end > endTime {
			endTime = end
		}
	}
	if err := scanner.Err(); err != nil {
		return 0, err
	}
	return endTime, nil
}
