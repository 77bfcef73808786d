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
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatFloat(t *testing.T) {
	assert.Equal(t, "4.0", FormatFloat(4, 32))
	assert.Equal(t, "3.7", FormatFloat(float64(float32(3.7)), 32))
	assert.Equal(t, "0.0", FormatFloat(0, 64))
	assert.Equal(t, "4.6", FormatFloat(RoundScore(4.60088), 64))
	assert.Equal(t, "3.59", FormatFloat(RoundScore(3.59116), 64))
	assert.Equal(t, "0.53", FormatFloat(RoundScore(0.53452), 64))
}

func TestFormatSession(t *testing.T) {
	session := &Session{
		UserName: "Alice",
		Method:   "Moyenne des genres",
		Profile: []Entry{
			{Title: "Toy Story (1995)", Rating: 4},
			{Title: "Heat (1995)", Rating: 2.5},
			{Title: "Casino (1995)", Rating: 0},
		},
		Recommendations: []Recommendation{
			{Title: "Sabrina (1995)", Score: 0.53452},
			{Title: "Jumanji (1995)", Score: 1},
		},
	}
	assert.Equal(t, "👤 Alice\n"+
		"⚙️ Méthode : Moyenne des genres\n\n"+
		"🎬 Films notés :\n"+
		"- Toy Story (1995) - Note : 4.0\n"+
		"- Heat (1995) - Note : 2.5\n"+
		"- Casino (1995) - Note : 0.0\n"+
		"\n⭐ Recommandations :\n"+
		"- Sabrina (1995) - Score : 0.53\n"+
		"- Jumanji (1995) - Score : 1.0\n"+
		"\n--------------------------------------------------\n\n", FormatSession(session))
}

func TestParseSessions(t *testing.T) {
	text := FormatSession(&Session{
		UserName: "Alice",
		Method:   "SVD",
		Profile: []Entry{
			{Title: "Léon - The Professional (1994)", Rating: 5},
			{Title: "Heat (1995)", Rating: 3.5},
			{Title: "Casino (1995)", Rating: 1},
		},
		Recommendations: []Recommendation{{Title: "Sabrina (1995)", Score: 4.25}},
	}) + FormatSession(&Session{
		UserName: "Bob",
		Method:   "Film préféré",
		Profile: []Entry{
			{Title: "Heat (1995)", Rating: 1},
			{Title: "Casino (1995)", Rating: 2},
			{Title: "Sabrina (1995)", Rating: 3},
		},
	})
	sessions := ParseSessions(text)
	assert.Len(t, sessions, 2)

	assert.Equal(t, "Alice", sessions[0].UserName)
	assert.Equal(t, "SVD", sessions[0].Method)
	assert.Equal(t, []Entry{
		{Title: "Léon - The Professional (1994)", Rating: 5},
		{Title: "Heat (1995)", Rating: 3.5},
		{Title: "Casino (1995)", Rating: 1},
	}, sessions[0].Profile)
	assert.Equal(t, []Recommendation{{Title: "Sabrina (1995)", Score: 4.25}}, sessions[0].Recommendations)
	assert.True(t, len(sessions[0].Raw) > 0)
	assert.NotContains(t, sessions[0].Raw, Delimiter)

	assert.Equal(t, "Bob", sessions[1].UserName)
	assert.Equal(t, "Film préféré", sessions[1].Method)
	assert.Len(t, sessions[1].Profile, 3)
	assert.Empty(t, sessions[1].Recommendations)
}

func TestParseMalformedSessions(t *testing.T) {
	assert.Empty(t, ParseSessions(""))
	assert.Empty(t, ParseSessions("\n\n"))

	sessions := ParseSessions("some notes\n- not a movie\n" + Delimiter + "\n⚙️ Méthode : KNN\n")
	assert.Len(t, sessions, 2)
	assert.Equal(t, UnknownUser, sessions[0].UserName)
	assert.Empty(t, sessions[0].Method)
	assert.Empty(t, sessions[0].Profile)
	assert.Equal(t, "some notes\n- not a movie", sessions[0].Raw)
	assert.Equal(t, UnknownUser, sessions[1].UserName)
	assert.Equal(t, "KNN", sessions[1].Method)
}

func TestParseInlineDelimiter(t *testing.T) {
	sessions := ParseSessions(FormatSession(&Session{
		UserName:        "mallory " + Delimiter,
		Method:          "SVD",
		Profile:         []Entry{{Title: Delimiter + " (2001)", Rating: 4}},
		Recommendations: []Recommendation{{Title: Delimiter, Score: 2}},
	}))
	assert.Len(t, sessions, 1)
	assert.Equal(t, "mallory "+Delimiter, sessions[0].UserName)
	assert.Equal(t, []Entry{{Title: Delimiter + " (2001)", Rating: 4}}, sessions[0].Profile)
	assert.Equal(t, []Recommendation{{Title: Delimiter, Score: 2}}, sessions[0].Recommendations)
}
