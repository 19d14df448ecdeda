package schedule

// DefaultSchedules are seeded at startup when requested.
func DefaultSchedules() []Schedule {
	return []Schedule{
		{
			Department: "4IT",
			Courses: []CourseLoad{
				{CourseKey: "HS131.02A / HSS", LecturesPerWeek: 2, LabsPerWeek: 0},
				{CourseKey: "IT355 / SNT", LecturesPerWeek: 3, LabsPerWeek: 1},
				{CourseKey: "IT356 / CAMI", LecturesPerWeek: 4, LabsPerWeek: 1},
				{CourseKey: "IT357 / CN", LecturesPerWeek: 3, LabsPerWeek: 1},
				{CourseKey: "IT358 / FSWD", LecturesPerWeek: 0, LabsPerWeek: 1},
				{CourseKey: "IT359 / DAA", LecturesPerWeek: 4, LabsPerWeek: 1},
				{CourseKey: "IT360 / SGP", LecturesPerWeek: 0, LabsPerWeek: 1},
			},
		},
		{
			Department: "4CE",
			Courses: []CourseLoad{
				{CourseKey: "CE262 / DCN", LecturesPerWeek: 4, LabsPerWeek: 1},
				{CourseKey: "CE263 / DBMS", LecturesPerWeek: 3, LabsPerWeek: 2},
				{CourseKey: "CE264 / DAA", LecturesPerWeek: 4, LabsPerWeek: 1},
				{CourseKey: "CE266 / SE", LecturesPerWeek: 3, LabsPerWeek: 1},
				{CourseKey: "CE268 / SGP", LecturesPerWeek: 0, LabsPerWeek: 1},
				{CourseKey: "CE269 / PIP", LecturesPerWeek: 0, LabsPerWeek: 1},
				{CourseKey: "HS111.03 / HSS", LecturesPerWeek: 2, LabsPerWeek: 0},
			},
		},
	}
}
