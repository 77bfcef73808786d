// Copyright 2026 gorse Project Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package history

import (
	"math"
	"strconv"
	"strings"
)

const (
	userMarker            = "👤"
	methodMarker          = "⚙️"
	methodLabel           = "Méthode :"
	profileHeader         = "🎬 Films notés :"
	recommendationsHeader = "⭐ Recommandations :"
	ratingSeparator       = " - Note : "
	scoreSeparator        = " - Score : "
	itemPrefix            = "- "
)

// Delimiter separates sessions in the text log.
var Delimiter = strings.Repeat("-", 50)

// FormatFloat prints a float the way Python prints it: integral values keep ".0".
func FormatFloat(v float64, bitSize int) string {
	s := strconv.FormatFloat(v, 'f', -1, bitSize)
	if !strings.ContainsAny(s, ".NI") {
		s += ".0"
	}
	return s
}

// RoundScore rounds a score to two decimals.
func RoundScore(score float32) float64 {
	return math.Round(float64(score)*100) / 100
}

// FormatSession renders a session as a text block ending with the delimiter.
func FormatSession(session *Session) string {
	var builder strings.Builder
	builder.WriteString(userMarker + " " + session.UserName + "\n")
	builder.WriteString(methodMarker + " " + methodLabel + " " + session.Method + "\n\n")
	builder.WriteString(profileHeader + "\n")
	for _, entry := range session.Profile {
		builder.WriteString(itemPrefix + entry.Title + ratingSeparator + FormatFloat(float64(entry.Rating), 32) + "\n")
	}
	builder.WriteString("\n" + recommendationsHeader + "\n")
	for _, rec := range session.Recommendations {
		builder.WriteString(itemPrefix + rec.Title + scoreSeparator + FormatFloat(RoundScore(rec.Score), 64) + "\n")
	}
	builder.WriteString("\n" + Delimiter + "\n\n")
	return builder.String()
}

// ParseSessions splits a text log into sessions. Lines that don't belong to any known
// section are kept in the raw block only.
func ParseSessions(text string) []*Session {
	sessions := make([]*Session, 0)
	var lines []string
	flush := func() {
		if block := strings.TrimSpace(strings.Join(lines, "\n")); block != "" {
			sessions = append(sessions, parseBlock(block))
		}
		lines = lines[:0]
	}
	// only a line made of the delimiter ends a block
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) == Delimiter {
			flush()
			continue
		}
		lines = append(lines, line)
	}
	flush()
	return sessions
}

func parseBlock(block string) *Session {
	session := &Session{
		UserName:        UnknownUser,
		Profile:         []Entry{},
		Recommendations: []Recommendation{},
		Raw:             block,
	}
	var userFound, methodFound bool
	section := ""
	for _, line := range strings.Split(block, "\n") {
		line = strings.TrimRight(line, "\r")
		switch {
		case strings.HasPrefix(line, userMarker):
			if !userFound {
				session.UserName = strings.TrimSpace(strings.TrimPrefix(line, userMarker))
				userFound = true
			}
		case strings.HasPrefix(line, methodMarker):
			if !methodFound {
				method := strings.TrimPrefix(line, methodMarker)
				if i := strings.Index(method, methodLabel); i >= 0 {
					method = method[i+len(methodLabel):]
				}
				session.Method = strings.TrimSpace(method)
				methodFound = true
			}
		case strings.HasPrefix(line, profileHeader):
			section = profileHeader
		case strings.HasPrefix(line, recommendationsHeader):
			section = recommendationsHeader
		case strings.HasPrefix(line, itemPrefix):
			item := strings.TrimPrefix(line, itemPrefix)
			if section == profileHeader {
				if title, value, ok := splitItem(item, ratingSeparator); ok {
					session.Profile = append(session.Profile, Entry{Title: title, Rating: value})
				}
			} else if section == recommendationsHeader {
				if title, value, ok := splitItem(item, scoreSeparator); ok {
					session.Recommendations = append(session.Recommendations, Recommendation{Title: title, Score: value})
				}
			}
		}
	}
	return session
}

// splitItem splits "<title><separator><number>". Titles may contain the separator, so
// the last one is used.
func splitItem(item, separator string) (string, float32, bool) {
	i := strings.LastIndex(item, separator)
	if i < 0 {
		return "", 0, false
	}
	value, err := strconv.ParseFloat(strings.TrimSpace(item[i+len(separator):]), 32)
	if err != nil {
		return "", 0, false
	}
	return item[:i], float32(value), true
}
