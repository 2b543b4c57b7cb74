package dummydb

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/darasadev/darasa/core"
	"github.com/darasadev/darasa/core/course"
)

type courseRepository struct {
	db *courseTable
}

var _ course.Repository = (*courseRepository)(nil) // interface compliance check

func NewCourseRepository(db *DB) course.Repository {
	return &courseRepository{db: db.course}
}

func (repo *courseRepository) CheckCodeUniqueness(ctx context.Context, orgID, code string, exec ...core.DBExecutor) error {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, crs := range repo.db.table {
		if crs.OrgID == orgID && crs.Code == code {
			return course.ErrCodeExists
		}
	}
	return nil
}

func (repo *courseRepository) CreateCourse(ctx context.Context, crs course.Course, exec ...core.DBExecutor) (course.Course, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	crs.ID = uuid.New().String()
	repo.db.table[crs.ID] = &crs
	return crs, nil
}

func (repo *courseRepository) GetCourse(ctx context.Context, id string, exec ...core.DBExecutor) (course.Course, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if crs, ok := repo.db.table[id]; ok {
		return *crs, nil
	}
	return course.Course{}, course.ErrNotFound
}

func (repo *courseRepository) QueryCourses(ctx context.Context, filter *course.QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]course.Course, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	courses := make([]course.Course, 0, len(repo.db.table))
	for _, crs := range repo.db.table {
		courses = append(courses, *crs)
	}

	if filter != nil {
		if filter.OrgID != "" {
			var filtered []course.Course
			for _, c := range courses {
				if c.OrgID == filter.OrgID {
					filtered = append(filtered, c)
				}
			}
			courses = filtered
		}
		// courses with search keyword matching Code or Title ?
		if filter.Search != "" {
			kw := strings.ToLower(filter.Search)
			var filtered []course.Course
			for _, c := range courses {
				if strings.Contains(strings.ToLower(c.Code), kw) ||
					strings.Contains(strings.ToLower(c.Title), kw) {
					filtered = append(filtered, c)
				}
			}
			courses = filtered
		}
		if courses != nil && filter.TeacherID != "" {
			var filtered []course.Course
			for _, c := range courses {
				if c.TeacherID == filter.TeacherID {
					filtered = append(filtered, c)
				}
			}
			courses = filtered
		}
		if courses != nil && filter.IsPublished != nil {
			var filtered []course.Course
			for _, c := range courses {
				if c.Published() == *filter.IsPublished {
					filtered = append(filtered, c)
				}
			}
			courses = filtered
		}
	}

	sort.Slice(courses, func(i, j int) bool { return courses[i].Code < courses[j].Code })
	return courses, nil
}

func (repo *courseRepository) UpdateCourse(ctx context.Context, crs course.Course, exec ...core.DBExecutor) (course.Course, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.table[crs.ID]; !ok {
		return course.Course{}, course.ErrNotFound
	}
	repo.db.table[crs.ID] = &crs
	return crs, nil
}

func (repo *courseRepository) DeleteCoursesByID(ctx context.Context, ids []string, exec ...core.DBExecutor) (int, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	var cnt int
	for _, id := range ids {
		if _, ok := repo.db.table[id]; ok {
			delete(repo.db.table, id)
			cnt++
		}
	}
	return cnt, nil
}
