package spectracam

/*------------------------------------------------------------------
 *
 * Purpose:   	Application configuration.
 *
 * Description:	One small YAML file covers everything that differs
 *		between installations: where data goes, which camera
 *		and serial adapter to use, and which header pins the
 *		button and LEDs are wired to.
 *
 *		Anything not present keeps the production default, so
 *		an empty file (or no file) is a valid configuration.
 *
 *---------------------------------------------------------------*/

import (
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	DataRoot string `yaml:"data_root"` /* Daily directories are created under here. */

	CameraID   string `yaml:"camera_id"`   /* I2C focus bus identifier, e.g. "camera-0". */
	SerialPort string `yaml:"serial_port"` /* Spectrometer port identifier, e.g. "USB0". */
	SerialBaud int    `yaml:"serial_baud"`

	ButtonPin  uint `yaml:"button_pin"`  /* Header pin numbers, not line offsets. */
	FlashPin   uint `yaml:"flash_pin"`
	AmbientPin uint `yaml:"ambient_pin"`

	GPIOChip string `yaml:"gpio_chip"`
}

func DefaultConfig() Config {
	return Config{
		DataRoot:   "/home/New_Data/",
		CameraID:   "camera-0",
		SerialPort: "USB0",
		SerialBaud: 115200,
		ButtonPin:  7,
		FlashPin:   38,
		AmbientPin: 40,
		GPIOChip:   "gpiochip0",
	}
}

/*-------------------------------------------------------------------
 *
 * Name:	LoadConfig
 *
 * Purpose:	Read a YAML configuration file over the defaults.
 *
 * Inputs:	path	- Config file location.  Empty string means
 *			  defaults only.
 *
 * Returns:	The merged configuration, or an error if the file
 *		is missing or cannot be read or parsed.
 *
 *--------------------------------------------------------------------*/

func LoadConfig(path string) (Config, error) {
	var config = DefaultConfig()

	if path == "" {
		return config, nil
	}

	var raw, err = os.ReadFile(path)
	if err != nil {
		return config, configErrorf("could not read config file '%s': %v", path, err)
	}

	if err := yaml.Unmarshal(raw, &config); err != nil {
		return config, configErrorf("could not parse config file '%s': %v", path, err)
	}

	return config, nil
}
