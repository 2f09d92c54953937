package store

import "github.com/myrobot/academy/internal/models"

// Sample lists shown until an admin saves real data. Each call returns a
// fresh slice so callers can append without aliasing.

func defaultCourses() []models.Course {
	return []models.Course{
		{
			ID: "1", Name: "Robotics Explorers", Level: "beginner", AgeRange: "6-8",
			Capacity: 12, Enrolled: 8, Schedule: "Sat 10:00-11:30",
			Coordinator: "Sara Ahmed", Price: 120,
			Description: "Build and program simple robots with block coding.",
		},
		{
			ID: "2", Name: "Young Engineers", Level: "intermediate", AgeRange: "9-12",
			Capacity: 15, Enrolled: 11, Schedule: "Sun 16:00-18:00",
			Coordinator: "Omar Khalil", Price: 150,
			Description: "Sensors, motors and first steps in Python.",
		},
		{
			ID: "3", Name: "Competition Team", Level: "advanced", AgeRange: "13-16",
			Capacity: 10, Enrolled: 10, Schedule: "Tue/Thu 17:00-19:00",
			Coordinator: "Lina Haddad", Price: 200,
			Description: "Design, build and compete in regional robotics leagues.",
		},
	}
}

func defaultEvents() []models.Event {
	return []models.Event{
		{
			ID:          "1",
			Title:       models.LocalizedText{En: "Robot Olympics", Ar: "أولمبياد الروبوت"},
			Description: models.LocalizedText{En: "A day of friendly robot challenges for all ages.", Ar: "يوم من تحديات الروبوت الودية لجميع الأعمار."},
			Location:    models.LocalizedText{En: "Main Hall", Ar: "القاعة الرئيسية"},
			Date:        "2026-11-21", Time: "10:00",
			Capacity: 60, Enrolled: 24, Price: 25,
			Category: "competition", Image: "/images/events/olympics.jpg",
		},
		{
			ID:          "2",
			Title:       models.LocalizedText{En: "Parents Open Day", Ar: "يوم الأهالي المفتوح"},
			Description: models.LocalizedText{En: "Meet the coordinators and try our robots.", Ar: "تعرفوا على المنسقين وجربوا روبوتاتنا."},
			Location:    models.LocalizedText{En: "Lab 2", Ar: "المختبر 2"},
			Date:        "2026-12-05", Time: "17:00",
			Capacity: 40, Enrolled: 5, Price: 0,
			Category: "workshop", Image: "/images/events/open-day.jpg",
		},
	}
}

func defaultGallery() []models.GalleryItem {
	return []models.GalleryItem{
		{ID: "1", Title: "Line follower race", Description: "Explorers racing their first line followers.", ImageURL: "/images/gallery/line-follower.jpg", Category: "classes", Date: "2026-05-10"},
		{ID: "2", Title: "Regional finals", Description: "The competition team on stage.", ImageURL: "/images/gallery/finals.jpg", Category: "competitions", Date: "2026-06-22"},
		{ID: "3", Title: "Summer camp", Description: "Building rovers at summer camp.", ImageURL: "/images/gallery/camp.jpg", Category: "camps", Date: "2026-08-03"},
	}
}

func defaultAchievements() []models.Achievement {
	return []models.Achievement{
		{ID: "1", Title: "First place, Regional Robotics League", Description: "Autonomous maze category.", StudentName: "Competition Team", ImageURL: "/images/achievements/league.jpg", Date: "2026-06-22"},
		{ID: "2", Title: "Best design award", Description: "Recycled-materials robot arm.", StudentName: "Yousef M.", ImageURL: "/images/achievements/design.jpg", Date: "2026-04-15"},
	}
}
