package args

import (
	"bytes"
	"errors"
	"flag"
	"github.com/buddyfleet/buddyops/cmd/internal/strutil"
	"github.com/spf13/viper"
	"os"
	"strings"
	"time"
)

type Arguments struct {
	ConfigFile  string
	ConfigPath  string
	SecretsFile string
	LogLevel    string
	Version     bool

	RailwayUrl     string
	RailwayToken   string
	RailwayTimeout time.Duration

	CatalogUrl     string
	CatalogApiKey  string
	CatalogTimeout time.Duration

	/*
		Model tier selection. Empty values fall back to the resolver defaults.
	*/
	Capability  string
	Generations StringSliceArgs
	HighKeyword string
	LowKeyword  string
	Namespace   string
	DefaultHigh string
	DefaultLow  string

	/*
		Buddy provisioning.
	*/
	ModelId          string
	Tier             string
	ChannelToken     string
	TemplateRepo     string
	ServiceName      string
	Environment      string
	MountPath        string
	RejectDuplicates bool

	// Positional holds the arguments left after the flags, e.g. the human and buddy names.
	Positional []string
}

type StringSliceArgs []string

func (i *StringSliceArgs) String() string {
	return "A collection of strings passed as arguments"
}

func (i *StringSliceArgs) Set(value string) error {
	trimmed := strings.TrimSpace(value)

	if len(trimmed) == 0 {
		return nil
	}

	*i = append(*i, trimmed)
	return nil
}

// ParseArgs parses the flags of the named tool. The returned string holds any usage text the flag
// set printed.
func ParseArgs(name string, args []string) (Arguments, string, error) {
	flags := flag.NewFlagSet(name, flag.ContinueOnError)
	var buf bytes.Buffer
	flags.SetOutput(&buf)

	arguments := Arguments{}

	flags.StringVar(&arguments.ConfigFile, "configFile", "buddy", "The name of the configuration file to use. Do not include the extension. Defaults to buddy")
	flags.StringVar(&arguments.ConfigPath, "configPath", ".", "The path of the configuration file to use. Defaults to the current directory")
	flags.StringVar(&arguments.SecretsFile, "secretsFile", ".env.secrets", "A dotenv file holding RAILWAY_API_TOKEN, GEMINI_API_KEY and CLAWDBOT_TELEGRAM_TOKEN. Ignored when it does not exist")
	flags.StringVar(&arguments.LogLevel, "logLevel", "info", "The minimum level of the messages logged to stderr")
	flags.BoolVar(&arguments.Version, "version", false, "Print the version")
	flags.StringVar(&arguments.RailwayUrl, "railwayUrl", "", "The resource graph endpoint. Defaults to https://backboard.railway.com/graphql/v2")
	flags.StringVar(&arguments.RailwayToken, "railwayToken", "", "The resource graph API token")
	flags.DurationVar(&arguments.RailwayTimeout, "railwayTimeout", 30*time.Second, "The timeout of each resource graph request")
	flags.StringVar(&arguments.CatalogUrl, "catalogUrl", "", "The model catalog endpoint. Defaults to https://generativelanguage.googleapis.com/v1beta")
	flags.StringVar(&arguments.CatalogApiKey, "catalogApiKey", "", "The model catalog API key")
	flags.DurationVar(&arguments.CatalogTimeout, "catalogTimeout", 10*time.Second, "The timeout of the model catalog request")
	flags.StringVar(&arguments.Capability, "capability", "", "The generation method a model must support to be selected")
	flags.Var(&arguments.Generations, "generation", "A model generation marker, newest first. Pass the option once per generation")
	flags.StringVar(&arguments.HighKeyword, "highKeyword", "", "The keyword identifying high tier models")
	flags.StringVar(&arguments.LowKeyword, "lowKeyword", "", "The keyword identifying low tier models")
	flags.StringVar(&arguments.Namespace, "namespace", "", "The provider namespace prefixed to selected model ids")
	flags.StringVar(&arguments.DefaultHigh, "defaultHigh", "", "The high tier model used when discovery finds nothing")
	flags.StringVar(&arguments.DefaultLow, "defaultLow", "", "The low tier model used when discovery finds nothing")
	flags.StringVar(&arguments.ModelId, "model", "", "The model the buddy runs. When empty the model is discovered from the catalog")
	flags.StringVar(&arguments.Tier, "tier", "high", "The discovered tier used when no model is given. Either high or low")
	flags.StringVar(&arguments.ChannelToken, "channelToken", "", "The optional telegram bot token of the buddy")
	flags.StringVar(&arguments.TemplateRepo, "templateRepo", "", "The repository the buddy service is built from")
	flags.StringVar(&arguments.ServiceName, "serviceName", "", "The name of the buddy service")
	flags.StringVar(&arguments.Environment, "environment", "", "The preferred environment of the new project")
	flags.StringVar(&arguments.MountPath, "mountPath", "", "The mount path of the buddy volume")
	flags.BoolVar(&arguments.RejectDuplicates, "rejectDuplicates", false, "Refuse to create a buddy whose project name already exists")

	err := flags.Parse(args)

	if err != nil {
		return Arguments{}, buf.String(), err
	}

	err = overrideArgs(flags, arguments.ConfigPath, arguments.ConfigFile)

	if err != nil {
		return Arguments{}, buf.String(), err
	}

	secrets, err := readSecrets(arguments.SecretsFile)

	if err != nil {
		return Arguments{}, buf.String(), err
	}

	arguments.RailwayToken = strutil.FirstNonBlank(arguments.RailwayToken, secrets.GetString("railway_api_token"), os.Getenv("RAILWAY_API_TOKEN"))
	arguments.CatalogApiKey = strutil.FirstNonBlank(arguments.CatalogApiKey, secrets.GetString("gemini_api_key"), os.Getenv("GEMINI_API_KEY"))
	arguments.ChannelToken = strutil.FirstNonBlank(arguments.ChannelToken, secrets.GetString("clawdbot_telegram_token"), os.Getenv("CLAWDBOT_TELEGRAM_TOKEN"))

	if arguments.Tier != "high" && arguments.Tier != "low" {
		return Arguments{}, buf.String(), errors.New("tier must be either high or low")
	}

	arguments.Positional = flags.Args()

	return arguments, buf.String(), nil
}

// readSecrets loads a dotenv file. A missing file yields an empty set of secrets.
func readSecrets(path string) (*viper.Viper, error) {
	v := viper.New()

	if path == "" {
		return v, nil
	}

	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return v, nil
	}

	v.SetConfigFile(path)
	v.SetConfigType("env")

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	return v, nil
}

// Inspired by https://github.com/carolynvs/stingoftheviper
// Values from the config file and BUDDY_ prefixed environment variables are applied to any flag
// not set on the command line.
func overrideArgs(flags *flag.FlagSet, configPath string, configFile string) error {
	v := viper.New()

	// Set the base name of the config file, without the file extension.
	v.SetConfigName(configFile)
	v.AddConfigPath(configPath)

	// It's okay if there isn't a config file
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return err
		}
	}

	// A flag like -railwayToken binds to BUDDY_RAILWAYTOKEN.
	v.SetEnvPrefix("buddy")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	return bindFlags(flags, v)
}

// Bind each flag to its associated viper configuration (config file and environment variable)
func bindFlags(flags *flag.FlagSet, v *viper.Viper) error {
	var funcError error = nil

	flags.VisitAll(func(allFlags *flag.Flag) {
		defined := false
		flags.Visit(func(definedFlag *flag.Flag) {
			if definedFlag.Name == allFlags.Name && definedFlag.Name != "configFile" && definedFlag.Name != "configPath" {
				defined = true
			}
		})

		if defined || !v.IsSet(allFlags.Name) {
			return
		}

		// lists in the config file set repeatable flags once per item
		switch v.Get(allFlags.Name).(type) {
		case []any, []string:
			for _, value := range v.GetStringSlice(allFlags.Name) {
				funcError = errors.Join(funcError, flags.Set(allFlags.Name, value))
			}
		default:
			funcError = errors.Join(funcError, flags.Set(allFlags.Name, v.GetString(allFlags.Name)))
		}
	})

	return funcError
}
