package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/myrobot/academy/internal/models"
	"github.com/myrobot/academy/internal/store"
	"github.com/myrobot/academy/internal/validator"
	"github.com/myrobot/academy/internal/wizard"
)

var (
	ErrCourseNotFound = errors.New("course not found")
	ErrCourseFull     = errors.New("course is full")
)

// EnrollmentForm is the three-page course enrollment wizard.
type EnrollmentForm struct {
	ParentName  string `json:"parentName" validate:"required,min=2,max=80"`
	ParentEmail string `json:"parentEmail" validate:"required,email"`
	ParentPhone string `json:"parentPhone" validate:"required,e164"`

	ChildName string   `json:"childName" validate:"required,min=2,max=80"`
	ChildAge  string   `json:"childAge" validate:"required,number"`
	Grade     string   `json:"grade" validate:"required,max=20"`
	Interests []string `json:"interests,omitempty" validate:"max=10,dive,max=40"`
	CourseID  string   `json:"courseId" validate:"required"`

	Payment PaymentDetails `json:"payment"`
}

// Normalize trims input and rewrites the phone number to +E.164.
func (f *EnrollmentForm) Normalize(dialCode string) {
	f.ParentName = strings.TrimSpace(f.ParentName)
	if e, ok := NormEmail(f.ParentEmail); ok {
		f.ParentEmail = e
	}
	if p := NormPhone(f.ParentPhone, dialCode); p != "" {
		f.ParentPhone = p
	}
	f.ChildName = strings.TrimSpace(f.ChildName)
	f.ChildAge = strings.TrimSpace(f.ChildAge)
	f.Grade = strings.TrimSpace(f.Grade)
	f.CourseID = strings.TrimSpace(f.CourseID)
}

func NewEnrollmentFlow(v *validator.Validator) *wizard.Flow[EnrollmentForm] {
	return wizard.New[EnrollmentForm]("enrollment", v,
		wizard.Step{Name: "parent", Fields: []string{"ParentName", "ParentEmail", "ParentPhone"}},
		wizard.Step{Name: "child", Fields: []string{"ChildName", "ChildAge", "Grade", "Interests", "CourseID"}},
		wizard.Step{Name: "payment", Fields: []string{
			"Payment.CardName", "Payment.CardNumber", "Payment.Expiry", "Payment.CVC",
		}},
	)
}

type EnrollmentResult struct {
	Child   models.Child  `json:"child"`
	Course  models.Course `json:"course"`
	Code    string        `json:"code"`
	Receipt Receipt       `json:"receipt"`
}

// Enrollments runs submitted enrollment wizards: payment, seat, child
// record, notification and confirmation email.
type Enrollments struct {
	Flow *wizard.Flow[EnrollmentForm]

	store *store.Store
	pay   *PaymentSimulator
	mail  Mailer
	log   zerolog.Logger

	done *submissions[EnrollmentResult]
}

func NewEnrollments(st *store.Store, v *validator.Validator, pay *PaymentSimulator, mail Mailer, log zerolog.Logger) *Enrollments {
	return &Enrollments{
		Flow:  NewEnrollmentFlow(v),
		store: st,
		pay:   pay,
		mail:  mail,
		log:   log,
		done:  newSubmissions[EnrollmentResult](),
	}
}

// Submit completes an enrollment. parentID links the child to a signed-in
// parent and may be empty. Resubmitting the same key, even concurrently,
// returns the first result without charging or enrolling twice.
func (e *Enrollments) Submit(ctx context.Context, form EnrollmentForm, parentID, key string) (EnrollmentResult, error) {
	if key == "" {
		key = uuid.NewString()
	}
	return e.done.do(ctx, key, func() (EnrollmentResult, error) {
		return e.submit(ctx, form, parentID, "enroll:"+key)
	})
}

// submit charges under payKey, which is scoped to enrollments.
func (e *Enrollments) submit(ctx context.Context, form EnrollmentForm, parentID, payKey string) (EnrollmentResult, error) {
	if err := e.Flow.Validate(&form); err != nil {
		return EnrollmentResult{}, err
	}

	course, err := e.store.Courses.Get(ctx, form.CourseID)
	if errors.Is(err, store.ErrNotFound) {
		return EnrollmentResult{}, ErrCourseNotFound
	}
	if err != nil {
		return EnrollmentResult{}, fmt.Errorf("load course: %w", err)
	}
	if course.IsFull() {
		return EnrollmentResult{}, ErrCourseFull
	}

	receipt, err := e.pay.Charge(ctx, ChargeRequest{
		IdempotencyKey: payKey,
		Amount:         course.Price,
		Description:    "Enrollment: " + course.Name,
		Card:           form.Payment,
	})
	if err != nil {
		return EnrollmentResult{}, err
	}

	// Seats are re-checked under the collection lock.
	course, ok, err := e.store.Courses.UpdateFunc(ctx, course.ID, func(c *models.Course) error {
		if c.IsFull() {
			return ErrCourseFull
		}
		c.Enrolled++
		return nil
	})
	if err == nil && !ok {
		err = ErrCourseNotFound
	}
	if err != nil {
		e.refund(payKey)
		return EnrollmentResult{}, err
	}

	code := NewRegCode()
	child, err := e.store.Children.Add(ctx, models.Child{
		Name:        form.ChildName,
		Age:         form.ChildAge,
		Grade:       form.Grade,
		Interests:   form.Interests,
		ParentID:    parentID,
		Enrollments: []models.Enrollment{{CourseID: course.ID, Code: code, EnrolledAt: e.store.Now().UTC()}},
	})
	if err != nil {
		e.releaseSeat(ctx, course.ID)
		e.refund(payKey)
		return EnrollmentResult{}, fmt.Errorf("save child: %w", err)
	}

	if _, err := e.store.Notify(ctx, "enrollment",
		fmt.Sprintf("%s enrolled in %s (%s)", child.Name, course.Name, code)); err != nil {
		e.log.Error().Err(err).Str("code", code).Msg("enrollment notification failed")
	}

	if err := e.mail.Send(ctx, Message{
		To:      form.ParentEmail,
		Subject: "Enrollment confirmed: " + course.Name,
		Body: fmt.Sprintf("Hi %s,\n\n%s is enrolled in %s (%s).\nYour registration code is %s.\n",
			form.ParentName, child.Name, course.Name, course.Schedule, code),
	}); err != nil {
		e.log.Error().Err(err).Str("to", form.ParentEmail).Msg("confirmation email failed")
	}

	e.log.Info().Str("code", code).Str("course", course.ID).Str("child", child.ID).Msg("enrollment completed")

	return EnrollmentResult{Child: child, Course: course, Code: code, Receipt: receipt}, nil
}

// Cancel drops the enrollment behind code and frees its seat. A non-empty
// parentID restricts the lookup to that parent's children.
func (e *Enrollments) Cancel(ctx context.Context, code, parentID string) error {
	children, err := e.store.Children.List(ctx)
	if err != nil {
		return err
	}
	for _, c := range children {
		if parentID != "" && c.ParentID != parentID {
			continue
		}
		for _, en := range c.Enrollments {
			if en.Code != code {
				continue
			}
			courseID := en.CourseID
			_, _, err := e.store.Children.UpdateFunc(ctx, c.ID, func(ch *models.Child) error {
				kept := ch.Enrollments[:0]
				for _, x := range ch.Enrollments {
					if x.Code != code {
						kept = append(kept, x)
					}
				}
				ch.Enrollments = kept
				return nil
			})
			if err != nil {
				return err
			}
			e.releaseSeat(ctx, courseID)
			if _, err := e.store.Notify(ctx, "enrollment",
				fmt.Sprintf("%s cancelled enrollment %s", c.Name, code)); err != nil {
				e.log.Error().Err(err).Str("code", code).Msg("cancel notification failed")
			}
			return nil
		}
	}
	return ErrCodeNotFound
}

func (e *Enrollments) releaseSeat(ctx context.Context, courseID string) {
	_, _, err := e.store.Courses.UpdateFunc(ctx, courseID, func(c *models.Course) error {
		if c.Enrolled > 0 {
			c.Enrolled--
		}
		return nil
	})
	if err != nil {
		e.log.Error().Err(err).Str("course", courseID).Msg("release seat failed")
	}
}

func (e *Enrollments) refund(key string) {
	if err := e.pay.Refund(key); err != nil {
		e.log.Warn().Err(err).Msg("refund failed")
	}
}
