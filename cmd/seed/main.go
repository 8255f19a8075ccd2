package main

import (
	"context"
	"fmt"
	"time"

	"github.com/pathwise/compass-backend/internal/config"
	"github.com/pathwise/compass-backend/internal/database"
	"github.com/pathwise/compass-backend/internal/logger"
	"github.com/pathwise/compass-backend/internal/model"
	"github.com/pathwise/compass-backend/internal/repository"
)

// catalog is the built-in course catalog. Upserted so re-running the
// seeder refreshes tags without duplicating rows.
var catalog = []model.Course{
	{
		ID: "informatics", Name: "Teknik Informatika", Category: "Teknologi",
		Family: model.FamilyTechnical, Description: "Rekayasa perangkat lunak dan sistem komputer.",
		RiasecTypes: []string{"I", "R", "C"}, AptitudeStrengths: []string{"logical", "numerical"},
		Streams: []string{"science", "vocational"},
	},
	{
		ID: "electrical_engineering", Name: "Teknik Elektro", Category: "Teknologi",
		Family: model.FamilyTechnical, Description: "Sistem kelistrikan, elektronika, dan kendali.",
		RiasecTypes: []string{"R", "I"}, AptitudeStrengths: []string{"numerical", "spatial"},
		Streams: []string{"science", "vocational"},
	},
	{
		ID: "civil_engineering", Name: "Teknik Sipil", Category: "Teknologi",
		Family: model.FamilyTechnical, Description: "Perancangan dan pembangunan infrastruktur.",
		RiasecTypes: []string{"R", "C"}, AptitudeStrengths: []string{"spatial", "numerical"},
		Streams: []string{"science"},
	},
	{
		ID: "medicine", Name: "Kedokteran", Category: "Kesehatan",
		Family: model.FamilyHealthcare, Description: "Ilmu kedokteran umum.",
		RiasecTypes: []string{"I", "S"}, AptitudeStrengths: []string{"logical", "verbal"},
		Streams: []string{"science"},
	},
	{
		ID: "nursing", Name: "Keperawatan", Category: "Kesehatan",
		Family: model.FamilyHealthcare, Description: "Asuhan keperawatan dan kesehatan masyarakat.",
		RiasecTypes: []string{"S", "C"}, AptitudeStrengths: []string{"verbal"},
		Streams: []string{"science", "vocational"},
	},
	{
		ID: "pharmacy", Name: "Farmasi", Category: "Kesehatan",
		Family: model.FamilyHealthcare, Description: "Ilmu obat-obatan dan formulasi.",
		RiasecTypes: []string{"I", "C"}, AptitudeStrengths: []string{"numerical", "logical"},
		Streams: []string{"science"},
	},
	{
		ID: "management", Name: "Manajemen", Category: "Bisnis",
		Family: model.FamilyBusiness, Description: "Pengelolaan organisasi dan bisnis.",
		RiasecTypes: []string{"E", "C"}, AptitudeStrengths: []string{"verbal", "numerical"},
	},
	{
		ID: "accounting", Name: "Akuntansi", Category: "Bisnis",
		Family: model.FamilyBusiness, Description: "Pencatatan dan analisis keuangan.",
		RiasecTypes: []string{"C", "E"}, AptitudeStrengths: []string{"numerical"},
	},
	{
		ID: "visual_design", Name: "Desain Komunikasi Visual", Category: "Seni",
		Family: model.FamilyCreative, Description: "Desain grafis dan komunikasi visual.",
		RiasecTypes: []string{"A", "E"}, AptitudeStrengths: []string{"spatial"},
		Streams: []string{"language", "social", "vocational"},
	},
	{
		ID: "literature", Name: "Sastra", Category: "Seni",
		Family: model.FamilyCreative, Description: "Kajian bahasa dan karya sastra.",
		RiasecTypes: []string{"A", "I"}, AptitudeStrengths: []string{"verbal"},
		Streams: []string{"language", "social"},
	},
	{
		ID: "psychology", Name: "Psikologi", Category: "Sosial",
		Family: model.FamilySocial, Description: "Perilaku manusia dan proses mental.",
		RiasecTypes: []string{"S", "I"}, AptitudeStrengths: []string{"verbal", "logical"},
		Streams: []string{"science", "social"},
	},
	{
		ID: "education", Name: "Pendidikan Guru", Category: "Sosial",
		Family: model.FamilySocial, Description: "Keguruan dan ilmu pendidikan.",
		RiasecTypes: []string{"S", "A"}, AptitudeStrengths: []string{"verbal"},
	},
	{
		ID: "law", Name: "Ilmu Hukum", Category: "Sosial",
		Family: model.FamilySocial, Description: "Sistem hukum dan perundang-undangan.",
		RiasecTypes: []string{"E", "S"}, AptitudeStrengths: []string{"verbal", "logical"},
		Streams: []string{"social", "language"},
	},
	{
		ID: "mathematics", Name: "Matematika", Category: "Sains",
		Family: model.FamilyScience, Description: "Matematika murni dan terapan.",
		RiasecTypes: []string{"I", "C"}, AptitudeStrengths: []string{"numerical", "logical"},
		Streams: []string{"science"},
	},
	{
		ID: "biology", Name: "Biologi", Category: "Sains",
		Family: model.FamilyScience, Description: "Ilmu hayati dan ekologi.",
		RiasecTypes: []string{"I", "R"}, AptitudeStrengths: []string{"logical", "verbal"},
		Streams: []string{"science"},
	},
}

// likertScale is the shared five-point agreement scale for the rating
// sections.
var likertScale = []string{
	"Sangat tidak setuju", "Tidak setuju", "Netral", "Setuju", "Sangat setuju",
}

// sectionSeed is one section bank bound to a grade. Every seeded bank
// uses stream 'all' so grade 12 categories share the same sections.
type sectionSeed struct {
	GradeLevel string
	Position   int
	Section    model.Section
}

func questionBank() []sectionSeed {
	var seeds []sectionSeed
	for _, grade := range []string{model.GradeLevel9, model.GradeLevel12} {
		seeds = append(seeds,
			sectionSeed{grade, 1, interestSection()},
			sectionSeed{grade, 2, personalitySection()},
			sectionSeed{grade, 3, situationalSection()},
			sectionSeed{grade, 4, knowledgeSection(grade)},
			sectionSeed{grade, 5, aptitudeSection()},
			sectionSeed{grade, 6, adaptiveSection()},
		)
	}
	return seeds
}

func interestSection() model.Section {
	items := []struct{ letter, text string }{
		{"R", "Saya senang memperbaiki atau merakit peralatan."},
		{"I", "Saya senang memecahkan soal atau teka-teki yang rumit."},
		{"A", "Saya senang menggambar, menulis, atau bermusik."},
		{"S", "Saya senang membantu orang lain menyelesaikan masalahnya."},
		{"E", "Saya senang memimpin kelompok atau meyakinkan orang lain."},
		{"C", "Saya senang bekerja dengan data yang rapi dan teratur."},
	}
	s := model.Section{ID: model.SectionInterest, Title: "Minat", ResponseScale: likertScale}
	for i, it := range items {
		s.Questions = append(s.Questions, model.Question{
			ID:       fmt.Sprintf("int-%02d", i+1),
			Text:     it.text,
			Type:     model.QuestionTypeRating,
			Category: it.letter,
		})
	}
	return s
}

func personalitySection() model.Section {
	items := []struct{ trait, subtag, text string }{
		{"openness", "", "Saya suka mencoba cara baru dalam mengerjakan sesuatu."},
		{"conscientiousness", "", "Saya menyelesaikan tugas sebelum tenggat waktu."},
		{"extraversion", "", "Saya merasa berenergi saat berada di keramaian."},
		{"agreeableness", "", "Saya mudah bekerja sama dengan siapa saja."},
		{"neuroticism", "", "Saya mudah merasa cemas menjelang ujian."},
		{"neuroticism", "reversed", "Saya tetap tenang dalam situasi yang menekan."},
	}
	s := model.Section{ID: model.SectionPersonality, Title: "Kepribadian", ResponseScale: likertScale}
	for i, it := range items {
		s.Questions = append(s.Questions, model.Question{
			ID:       fmt.Sprintf("per-%02d", i+1),
			Text:     it.text,
			Type:     model.QuestionTypeRating,
			Category: it.trait,
			Subtag:   it.subtag,
		})
	}
	return s
}

func situationalSection() model.Section {
	return model.Section{
		ID: model.SectionSituational, Title: "Penilaian Situasi",
		Questions: []model.Question{
			{
				ID:   "sit-01",
				Text: "Tugas kelompokmu tertinggal jadwal. Pilih tindakan terbaik dan terburuk.",
				Type: model.QuestionTypeSituational,
				Options: []string{
					"Membagi ulang tugas sesuai kekuatan anggota",
					"Mengerjakan semuanya sendiri semalaman",
					"Melapor ke guru tanpa bicara dengan kelompok",
					"Menunggu anggota lain bergerak lebih dulu",
				},
			},
			{
				ID:   "sit-02",
				Text: "Temanmu kesulitan memahami materi menjelang ujian. Pilih tindakan terbaik dan terburuk.",
				Type: model.QuestionTypeSituational,
				Options: []string{
					"Mengajaknya belajar bersama dengan jadwal rutin",
					"Memberikan jawaban latihanmu untuk disalin",
					"Menyarankan bertanya ke guru pada jam konsultasi",
					"Mengatakan itu bukan urusanmu",
				},
			},
		},
	}
}

func knowledgeSection(grade string) model.Section {
	s := model.Section{
		ID: model.SectionKnowledge, Title: "Wawasan", IsTimed: true, TimeLimit: 600,
	}
	items := []struct {
		text    string
		options []string
		answer  string
	}{
		{
			"Jenjang pendidikan setelah SMA yang menghasilkan gelar sarjana adalah",
			[]string{"S1", "SMK", "Paket C", "Kursus"}, "S1",
		},
		{
			"Bidang studi yang paling dekat dengan pekerjaan pengembang perangkat lunak adalah",
			[]string{"Informatika", "Agronomi", "Arkeologi", "Farmasi"}, "Informatika",
		},
	}
	if grade == model.GradeLevel12 {
		items = append(items, struct {
			text    string
			options []string
			answer  string
		}{
			"Jalur masuk perguruan tinggi negeri berbasis nilai rapor adalah",
			[]string{"SNBP", "SNBT", "Mandiri", "Transfer"}, "SNBP",
		})
	}
	for i, it := range items {
		s.Questions = append(s.Questions, model.Question{
			ID:            fmt.Sprintf("kno-%02d", i+1),
			Text:          it.text,
			Type:          model.QuestionTypeSingleSelect,
			Options:       it.options,
			CorrectAnswer: it.answer,
		})
	}
	return s
}

func aptitudeSection() model.Section {
	s := model.Section{
		ID: model.SectionAptitude, Title: "Bakat", IsAptitude: true, IsTimed: true,
		TimeLimit: 300, IndividualTimeLimit: 45, IndividualCount: 2,
	}
	items := []struct {
		category, text string
		options        []string
		answer         string
	}{
		{"numerical", "2, 6, 18, 54, ... Bilangan berikutnya adalah", []string{"108", "162", "216", "324"}, "162"},
		{"logical", "Semua murid membawa buku. Dina seorang murid. Maka Dina", []string{"membawa buku", "tidak membawa buku", "membawa pensil", "tidak dapat disimpulkan"}, "membawa buku"},
		{"verbal", "Lawan kata dari 'hemat' adalah", []string{"boros", "cermat", "teliti", "rajin"}, "boros"},
		{"spatial", "Kubus memiliki berapa sisi?", []string{"4", "6", "8", "12"}, "6"},
	}
	for i, it := range items {
		s.Questions = append(s.Questions, model.Question{
			ID:            fmt.Sprintf("apt-%02d", i+1),
			Text:          it.text,
			Type:          model.QuestionTypeSingleSelect,
			Options:       it.options,
			CorrectAnswer: it.answer,
			Category:      it.category,
		})
	}
	return s
}

func adaptiveSection() model.Section {
	return model.Section{
		ID: model.SectionAdaptive, Title: "Bakat Adaptif", IsAdaptive: true,
	}
}

func main() {
	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	courseRepo := repository.NewCourseRepository(pool)
	questionRepo := repository.NewQuestionRepository(pool)

	fmt.Printf("=== Seeding %d Courses ===\n", len(catalog))
	for _, course := range catalog {
		if err := courseRepo.Upsert(ctx, course); err != nil {
			log.Fatal().Err(err).Str("course_id", course.ID).Msg("Failed to seed course")
		}
		fmt.Printf("  upserted %s\n", course.ID)
	}

	banks := questionBank()
	fmt.Printf("=== Seeding %d Section Banks ===\n", len(banks))
	for _, seed := range banks {
		if err := questionRepo.UpsertSection(ctx, seed.GradeLevel, "all", seed.Position, seed.Section); err != nil {
			log.Fatal().Err(err).
				Str("section_id", seed.Section.ID).
				Str("grade_level", seed.GradeLevel).
				Msg("Failed to seed section")
		}
		fmt.Printf("  upserted %s (grade %s, %d questions)\n",
			seed.Section.ID, seed.GradeLevel, len(seed.Section.Questions))
	}
	fmt.Println("Done")
}
