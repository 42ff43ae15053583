package stubsite

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/nexusofthings/nexus/internal/site"
)

const defaultPrizes = "1st: ₹3,000 | 2nd: ₹2,000 | 3rd: ₹1,000"

// DefaultCatalogue is the set of events the stub serves. Coordinator
// fields are left blank for some events so the client's placeholders show.
func DefaultCatalogue() map[string]site.EventDetails {
	return map[string]site.EventDetails{
		"InnovWEB": {
			Title:            "InnovWEB",
			Description:      "Build a responsive single-page web app that solves a real-world student problem.",
			RoundsInfo:       "Round 1: UI/UX assessment (wireframes). Round 2: Functional prototype. Round 3: Final demo & Q/A.",
			Rules:            "Original work only; bring your own laptops; internet allowed; frameworks permitted; judges evaluate UI/UX, accessibility, and performance.",
			TeamRequirements: "Solo or teams up to 2 members.",
			Prizes:           defaultPrizes,
			StudentCoordinators: []site.Coordinator{
				{Name: "P. Nahin Khan", RollNumber: "L24CO069", Phone: "+91 6305260604"},
			},
		},
		"SensorShowDown": {
			Title:            "SensorShowDown",
			Description:      "Rapid IoT prototyping with provided sensors and microcontrollers.",
			RoundsInfo:       "Round 1: Basic sensor wiring. Round 2: Data acquisition & visualization. Round 3: End-to-end prototype pitch.",
			Rules:            "Hardware will be provided on-site; no pre-built code; originality required; safety first with hardware handling.",
			TeamRequirements: "Solo or teams up to 2 members.",
			Prizes:           defaultPrizes,
		},
		"IdeaArena": {
			Title:                         "IdeaArena",
			Description:                   "Pitch an innovative tech idea with a crisp deck.",
			RoundsInfo:                    "Single round: 7-minute pitch + 3-minute Q/A with the jury.",
			Rules:                         "Slides are mandatory; focus on problem, solution, feasibility, and impact; plagiarism disqualifies.",
			TeamRequirements:              "Solo or teams up to 4 members.",
			Prizes:                        defaultPrizes,
			FacultyCoordinatorName:        "Dr N Nagamalleswara Rao",
			FacultyCoordinatorDesignation: "Professor & HOD, CSE-IoT",
			FacultyCoordinatorPhone:       "+91 9490114628",
			StudentCoordinators: []site.Coordinator{
				{Name: "K. Sai Venkata Radha Krishna", RollNumber: "Y23CO019", Phone: "+91 7075044638"},
				{Name: "N. Akhil Siva Chowdary", RollNumber: "Y24CO033", Phone: "+91 7670855283"},
			},
		},
		"Error Erase": {
			Title:            "Error Erase",
			Description:      "Time-bound debugging challenge across multiple languages.",
			RoundsInfo:       "Round 1: MCQ on debugging concepts. Round 2: Fix-the-code. Round 3: Speed debugging finals.",
			Rules:            "No internet search; IDEs allowed; solutions must be your own; partial credits for test-cases passed.",
			TeamRequirements: "Solo or teams of 2 members.",
			Prizes:           defaultPrizes,
		},
	}
}

// LoadCatalogue reads a JSON object mapping event names to details, in the
// shape the details endpoint returns.
func LoadCatalogue(path string) (map[string]site.EventDetails, error) {
	data, err := os.ReadFile(path) //nolint:gosec // G304: path comes from a command flag
	if err != nil {
		return nil, fmt.Errorf("reading catalogue: %w", err)
	}
	var c map[string]site.EventDetails
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parsing catalogue %s: %w", path, err)
	}
	if len(c) == 0 {
		return nil, errors.New("catalogue has no events")
	}
	return c, nil
}
