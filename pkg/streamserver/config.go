/*
Copyright © 2024 Alexandre Pires

Permission is hereby granted, free of charge, to any person obtaining a copy
of this software and associated documentation files (the "Software"), to deal
in the Software without restriction, including without limitation the rights
to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
copies of the Software, and to permit persons to whom the Software is
furnished to do so, subject to the following conditions:

The above copyright notice and this permission notice shall be included in
all copies or substantial portions of the Software.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
THE SOFTWARE.
*/
package streamserver

import (
	"encoding/json"
	"os"
	"strconv"
)

type Config struct {
	Host        string `json:"host,omitempty"`
	Port        int    `json:"port"`
	StreamURL   string `json:"stream_url"`
	StationName string `json:"station_name"`
	Genre       string `json:"genre,omitempty"`
	Bitrate     int    `json:"bitrate,omitempty"`
	Timeout     int    `json:"default_timeout,omitempty"`
	LogFile     string `json:"log_file,omitempty"`
	LogLevel    string `json:"log_level,omitempty"`
}

func DefaultConfig() Config {
	return Config{
		Host:        "0.0.0.0",
		Port:        8000,
		StreamURL:   "https://sa46.scastream.com.au/live/3fox_128.stream/playlist.m3u8",
		StationName: "101.9 Fox FM Melbourne",
		Genre:       "Pop",
		Bitrate:     128,
		Timeout:     10,
		LogLevel:    "info",
	}
}

// LoadConfig reads a JSON config file and applies environment overrides on
// top. A missing or empty path yields the defaults plus the environment.
func LoadConfig(path string) (Config, error) {
	config := DefaultConfig()

	if path != "" {
		file, err := os.Open(path)
		if err != nil {
			return Config{}, err
		}
		defer file.Close()

		if err := json.NewDecoder(file).Decode(&config); err != nil {
			return Config{}, err
		}
	}

	config.applyEnv()
	config.applyDefaults()
	return config, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("HOST"); v != "" {
		c.Host = v
	}
	if v := os.Getenv("PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Port = port
		}
	}
	if v := os.Getenv("STREAM_URL"); v != "" {
		c.StreamURL = v
	}
	if v := os.Getenv("STATION_NAME"); v != "" {
		c.StationName = v
	}
	if v := os.Getenv("GENRE"); v != "" {
		c.Genre = v
	}
	if v := os.Getenv("BITRATE"); v != "" {
		if bitrate, err := strconv.Atoi(v); err == nil {
			c.Bitrate = bitrate
		}
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
}

func (c *Config) applyDefaults() {
	if c.Port == 0 {
		c.Port = 8000
	}
	if c.Timeout < 1 {
		c.Timeout = 10
	}
	if c.Genre == "" {
		c.Genre = "Pop"
	}
	if c.Bitrate == 0 {
		c.Bitrate = 128
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}
