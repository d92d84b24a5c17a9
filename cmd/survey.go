package cmd

import (
	"context"
	"strings"
	"time"

	"emperror.dev/errors"
	"github.com/spf13/cobra"

	"github.com/priyxstudio/botdeck/internal/manager"
	"github.com/priyxstudio/botdeck/remote"
)

// ButtonTypes are the answer button sets understood by the bot server.
var ButtonTypes = []string{"Difficulty", "Score"}

var surveyArgs struct {
	Message    string
	Topic      string
	Channel    string
	ButtonType string
	Questions  []string
	Duration   time.Duration
}

var feedbackArgs struct {
	Group    string
	Channel  string
	Duration time.Duration
}

func newSurveyCommand() *cobra.Command {
	command := &cobra.Command{
		Use:   "survey",
		Short: "Post surveys to a channel.",
	}

	simple := &cobra.Command{
		Use:   "simple",
		Short: "Post a survey with a single question.",
		RunE:  surveySimpleCmdRun,
	}
	simple.Flags().StringVar(&surveyArgs.ButtonType, "button-type", "Difficulty", "the answer buttons, one of "+strings.Join(ButtonTypes, ", "))

	complexSurvey := &cobra.Command{
		Use:   "complex",
		Short: "Post a survey with several questions.",
		Example: `  botdeck survey complex --channel 123 --topic "Week 3" \
    --question "How hard was the exercise?=Difficulty" --question "Rate the session=Score"`,
		RunE: surveyComplexCmdRun,
	}
	complexSurvey.Flags().StringArrayVar(&surveyArgs.Questions, "question", nil, "a question and its button type as text=type, repeat for more questions")
	_ = complexSurvey.MarkFlagRequired("question")

	for _, c := range []*cobra.Command{simple, complexSurvey} {
		c.Flags().StringVar(&surveyArgs.Message, "message", "", "the message shown above the survey")
		c.Flags().StringVar(&surveyArgs.Topic, "topic", "", "the main topic of the survey")
		c.Flags().StringVar(&surveyArgs.Channel, "channel", "", "the id of the channel to post in")
		c.Flags().DurationVar(&surveyArgs.Duration, "duration", time.Minute, "how long the survey stays open")
		_ = c.MarkFlagRequired("channel")
	}

	command.AddCommand(simple, complexSurvey)
	return command
}

func newFeedbackCommand() *cobra.Command {
	command := &cobra.Command{
		Use:   "feedback",
		Short: "Collect feedback from a group.",
	}
	tutor := &cobra.Command{
		Use:   "tutor",
		Short: "Start a tutor session feedback round for a group.",
		RunE:  feedbackTutorCmdRun,
	}
	tutor.Flags().StringVar(&feedbackArgs.Group, "group", "", "the name of the group")
	tutor.Flags().StringVar(&feedbackArgs.Channel, "channel", "", "the id of the channel to post in")
	tutor.Flags().DurationVar(&feedbackArgs.Duration, "duration", 5*time.Minute, "how long feedback is collected")
	_ = tutor.MarkFlagRequired("group")
	_ = tutor.MarkFlagRequired("channel")

	command.AddCommand(tutor)
	return command
}

func buttonType(s string) (string, error) {
	for _, t := range ButtonTypes {
		if strings.EqualFold(strings.TrimSpace(s), t) {
			return t, nil
		}
	}
	return "", errors.Errorf("unknown button type %q, expected one of %s", s, strings.Join(ButtonTypes, ", "))
}

func parseQuestions(values []string) ([]remote.SurveyQuestion, error) {
	out := make([]remote.SurveyQuestion, 0, len(values))
	for _, v := range values {
		i := strings.LastIndex(v, "=")
		if i < 0 {
			return nil, errors.Errorf("question %q is missing its button type", v)
		}
		text := strings.TrimSpace(v[:i])
		if text == "" {
			return nil, errors.Errorf("question %q has no text", v)
		}
		bt, err := buttonType(v[i+1:])
		if err != nil {
			return nil, err
		}
		out = append(out, remote.SurveyQuestion{Text: text, ButtonType: bt})
	}
	return out, nil
}

func surveySimpleCmdRun(cmd *cobra.Command, _ []string) error {
	bt, err := buttonType(surveyArgs.ButtonType)
	if err != nil {
		return err
	}
	return withClient(cmd, func(ctx context.Context, c remote.Client) error {
		return printMessage(c.CreateSimpleSurvey(ctx, remote.SimpleSurvey{
			Message:    surveyArgs.Message,
			Topic:      surveyArgs.Topic,
			ChannelID:  surveyArgs.Channel,
			ButtonType: bt,
			Duration:   surveyArgs.Duration,
		}))
	})
}

func surveyComplexCmdRun(cmd *cobra.Command, _ []string) error {
	questions, err := parseQuestions(surveyArgs.Questions)
	if err != nil {
		return err
	}
	return withClient(cmd, func(ctx context.Context, c remote.Client) error {
		return printMessage(c.CreateComplexSurvey(ctx, remote.ComplexSurvey{
			Message:   surveyArgs.Message,
			Topic:     surveyArgs.Topic,
			ChannelID: surveyArgs.Channel,
			Questions: questions,
			Duration:  surveyArgs.Duration,
		}))
	})
}

func feedbackTutorCmdRun(cmd *cobra.Command, _ []string) error {
	return withManager(cmd.Context(), func(ctx context.Context, m *manager.Manager) error {
		return printMessage(m.TutorFeedback(ctx, feedbackArgs.Group, feedbackArgs.Channel, feedbackArgs.Duration))
	})
}
