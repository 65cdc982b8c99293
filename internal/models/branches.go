package models

// Branch name constants for company role postings, grouped by degree level.
var (
	UGBranches = []string{
		"B.Arch.",
		"B.Tech. (Chemical Engineering)",
		"B.Tech. (Civil Engineering)",
		"B.Tech. (Computer Science and Engineering)",
		"B.Tech. (Electrical Engineering)",
		"B.Tech. (Electronics & Communication Engineering)",
		"B.Tech. (Mechanical Engineering)",
		"B.Tech. (Metallurgical & Materials Engineering)",
		"B.Tech. (Production and Industrial Engineering)",
		"B.Tech. (Engineering Physics)",
		"B.Tech. Biosciences and Bioengineering",
		"B.Tech. (Data Science and Artificial Intelligence)",
		"BS-MS (Chemical Sciences)",
		"BS-MS (Economics)",
		"BS-MS (Mathematics and Computing)",
		"BS-MS (Physics)",
		"Integrated M.Tech. Geological Technology",
		"Integrated M.Tech. Geophysical Technology",
	}

	PGBranches = []string{
		"M.Tech. (Computer Science)",
		"M.Tech. (Electrical Engineering)",
		"M.Tech. (Mechanical Engineering)",
		"M.Tech. (Civil Engineering)",
		"M.Tech. (Chemical Engineering)",
		"M.Tech. (Electronics & Communication)",
		"MBA",
		"M.Sc. (Mathematics)",
		"M.Sc. (Physics)",
		"M.Sc. (Chemistry)",
		"M.Arch.",
		"MCA",
	}

	PhDBranches = []string{
		"Ph.D. (Computer Science)",
		"Ph.D. (Electrical Engineering)",
		"Ph.D. (Mechanical Engineering)",
		"Ph.D. (Civil Engineering)",
		"Ph.D. (Chemical Engineering)",
		"Ph.D. (Mathematics)",
		"Ph.D. (Physics)",
		"Ph.D. (Chemistry)",
		"Ph.D. (Management)",
	}
)
